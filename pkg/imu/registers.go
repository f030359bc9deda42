package imu

// MPU-9250 registers.
const (
	RegSampleRateDiv = 0x19
	RegConfig        = 0x1A
	RegGyroConf      = 0x1B
	RegAccelConf     = 0x1C
	RegAccelConf2    = 0x1D
	RegI2CMstCtrl    = 0x24
	RegI2CSlv0Addr   = 0x25
	RegI2CSlv0Reg    = 0x26
	RegI2CSlv0Ctrl   = 0x27
	RegIntPinCfg     = 0x37
	RegIntEnable     = 0x38
	RegIntStatus     = 0x3A
	RegAccelXOut     = 0x3B // 14 bytes: accel, temp, gyro
	RegExtSensData00 = 0x49
	RegI2CSlv0DO     = 0x63
	RegUserCtl       = 0x6A
	RegPwrMgmt1      = 0x6B
	RegPwrMgmt2      = 0x6C
	RegWhoAmI        = 0x75
)

// Register bits.
const (
	BitHReset         = 0x80
	BitSleep          = 0x40
	ClockPLL          = 0x01
	BitI2CMstEn       = 0x20
	BitI2CIFDis       = 0x10
	BitIntAnyRd2Clear = 0x10
	BitRawRdyEn       = 0x01
	BitSlaveEn        = 0x80
	BitI2CRead        = 0x80
	I2CMstClk400kHz   = 0x0D
)

const (
	WhoAmIMPU9250 = 0x71
	WhoAmIMPU9255 = 0x73
	WhoAmIMPU6500 = 0x70
)

// AK8963 magnetometer, reached through the MPU's I2C master.
const (
	AK8963Addr = 0x0C

	AK8963WhoAmI = 0x00
	AK8963HXL    = 0x03 // 7 bytes: HXL..HZH, ST2
	AK8963Cntl1  = 0x0A
	AK8963ASAX   = 0x10 // 3 bytes of sensitivity adjustment

	AK8963ID          = 0x48
	AK8963PowerDown   = 0x00
	AK8963FuseROM     = 0x0F
	AK8963Continuous2 = 0x06 // 100 Hz
	AK8963Bits16      = 0x10
	AK8963Overflow    = 0x08 // ST2

	// Micro tesla per LSB in 16 bit mode.
	MagScale = 4912.0 / 32760.0
)
