package imu

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// configureMag brings up the AK8963 behind the MPU's I2C master and leaves
// slave 0 copying HXL..ST2 into EXT_SENS_DATA on every sample.
func (m *IMU) configureMag() error {
	userCtl := byte(BitI2CMstEn)
	if m.disableI2C {
		userCtl |= BitI2CIFDis
	}
	if err := m.writeReg(RegUserCtl, userCtl); err != nil {
		return errors.Wrap(err, "enable i2c master")
	}
	if err := m.writeReg(RegI2CMstCtrl, I2CMstClk400kHz); err != nil {
		return errors.Wrap(err, "i2c master clock")
	}

	id, err := m.magRead(AK8963WhoAmI, 1)
	if err != nil {
		return err
	}
	if id[0] != AK8963ID {
		return errors.Wrapf(ErrBadWhoAmI, "AK8963 got 0x%02x", id[0])
	}

	if err := m.magWrite(AK8963Cntl1, AK8963PowerDown); err != nil {
		return err
	}
	if err := m.magWrite(AK8963Cntl1, AK8963FuseROM); err != nil {
		return err
	}
	asa, err := m.magRead(AK8963ASAX, 3)
	if err != nil {
		return err
	}
	for i, a := range asa {
		m.magAdjust[i] = (float64(a)-128)/256 + 1
	}
	if err := m.magWrite(AK8963Cntl1, AK8963PowerDown); err != nil {
		return err
	}
	if err := m.magWrite(AK8963Cntl1, AK8963Continuous2|AK8963Bits16); err != nil {
		return err
	}

	for _, w := range []struct{ reg, val byte }{
		{RegI2CSlv0Addr, AK8963Addr | BitI2CRead},
		{RegI2CSlv0Reg, AK8963HXL},
		{RegI2CSlv0Ctrl, BitSlaveEn | 7},
	} {
		if err := m.writeReg(w.reg, w.val); err != nil {
			return errors.Wrap(err, "slave 0 continuous read")
		}
	}
	return nil
}

func (m *IMU) magWrite(reg, value byte) error {
	for _, w := range []struct{ reg, val byte }{
		{RegI2CSlv0Addr, AK8963Addr},
		{RegI2CSlv0Reg, reg},
		{RegI2CSlv0DO, value},
		{RegI2CSlv0Ctrl, BitSlaveEn | 1},
	} {
		if err := m.writeReg(w.reg, w.val); err != nil {
			return errors.Wrapf(err, "AK8963 write 0x%02x", reg)
		}
	}
	m.wait(10 * time.Millisecond)
	return nil
}

func (m *IMU) magRead(reg byte, n int) ([]byte, error) {
	if n < 1 || n > 15 {
		return nil, fmt.Errorf("cannot read %d bytes through slave 0", n)
	}
	for _, w := range []struct{ reg, val byte }{
		{RegI2CSlv0Addr, AK8963Addr | BitI2CRead},
		{RegI2CSlv0Reg, reg},
		{RegI2CSlv0Ctrl, BitSlaveEn | byte(n)},
	} {
		if err := m.writeReg(w.reg, w.val); err != nil {
			return nil, errors.Wrapf(err, "AK8963 read 0x%02x", reg)
		}
	}
	m.wait(10 * time.Millisecond)
	buf := make([]byte, n)
	if err := m.dev.ReadReg(RegExtSensData00, buf); err != nil {
		return nil, errors.Wrapf(err, "AK8963 read 0x%02x", reg)
	}
	return buf, nil
}
