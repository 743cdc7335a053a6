//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"syscall"
	"unsafe"
)

type device struct {
	file        *os.File
	index       int
	name        string
	axisCount   uint8
	buttonCount uint8
	buf         [8]byte
}

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13
)

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(Path(index), os.O_RDONLY, 0666)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}

	errno := d.ioctl(iocGAXES, unsafe.Pointer(&d.axisCount))
	if errno == 0 {
		errno = d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttonCount))
	}
	if errno == 0 {
		var name [256]byte
		if errno = d.ioctl(iocGNAME, unsafe.Pointer(&name)); errno == 0 {
			d.name = string(bytes.TrimRight(name[:], "\x00"))
		}
	}
	if errno != 0 {
		d.file.Close()
		return nil, errno
	}
	return d, nil
}

// DetectAndOpen opens the first available device from startIndex.
// It returns nil without error when nothing is found.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 256; index++ {
		d, err := Open(index)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return d, nil
	}
	return nil, nil
}

func (d *device) Close() error {
	return d.file.Close()
}

func (d *device) Index() int {
	return d.index
}

func (d *device) Name() string {
	return d.name
}

func (d *device) AxisCount() int {
	return int(d.axisCount)
}

func (d *device) ButtonCount() int {
	return int(d.buttonCount)
}

func (d *device) ReadEvent() (Event, error) {
	if _, err := io.ReadFull(d.file, d.buf[:]); err != nil {
		return nil, err
	}
	ev := event{
		Time:   binary.LittleEndian.Uint32(d.buf[0:]),
		Value:  int16(binary.LittleEndian.Uint16(d.buf[4:])),
		Type:   d.buf[6],
		Number: d.buf[7],
	}
	return typedEvent(ev), nil
}

func (d *device) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, err := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return err
}
