//go:build windows

package pty

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procCreatePseudoConsole          = kernel32.NewProc("CreatePseudoConsole")
	procResizePseudoConsole          = kernel32.NewProc("ResizePseudoConsole")
	procClosePseudoConsole           = kernel32.NewProc("ClosePseudoConsole")
	procInitializeProcThreadAttrList = kernel32.NewProc("InitializeProcThreadAttributeList")
	procDeleteProcThreadAttrList     = kernel32.NewProc("DeleteProcThreadAttributeList")
	procUpdateProcThreadAttribute    = kernel32.NewProc("UpdateProcThreadAttribute")
)

const (
	sOK                              = 0
	procThreadAttributePseudoConsole = 0x20016
)

// coord mirrors the Windows COORD console-size structure.
type coord struct {
	X int16
	Y int16
}

func (c *coord) pack() uintptr {
	return uintptr((int32(c.Y) << 16) | int32(c.X))
}

// hpcon is a pseudo console handle.
type hpcon windows.Handle

func conPTYAvailable() bool {
	return procCreatePseudoConsole.Find() == nil
}

func createPseudoConsole(size *coord, hInput, hOutput windows.Handle) (hpcon, error) {
	var h hpcon
	ret, _, lastErr := procCreatePseudoConsole.Call(
		size.pack(),
		uintptr(hInput),
		uintptr(hOutput),
		0,
		uintptr(unsafe.Pointer(&h)),
	)
	if ret != sOK {
		return 0, fmt.Errorf("CreatePseudoConsole failed with code 0x%x: %v", ret, lastErr)
	}
	return h, nil
}

func resizePseudoConsole(h hpcon, size *coord) error {
	ret, _, lastErr := procResizePseudoConsole.Call(uintptr(h), size.pack())
	if ret != sOK {
		return fmt.Errorf("ResizePseudoConsole failed with code 0x%x: %v", ret, lastErr)
	}
	return nil
}

func closePseudoConsole(h hpcon) {
	procClosePseudoConsole.Call(uintptr(h))
}

func initializeProcThreadAttrList() ([]byte, error) {
	var size uintptr
	_, _, firstErr := procInitializeProcThreadAttrList.Call(0, 1, 0, uintptr(unsafe.Pointer(&size)))
	if size == 0 {
		return nil, fmt.Errorf("failed to size attribute list: %v", firstErr)
	}

	attrList := make([]byte, size)
	ret, _, lastErr := procInitializeProcThreadAttrList.Call(
		uintptr(unsafe.Pointer(&attrList[0])),
		1, 0,
		uintptr(unsafe.Pointer(&size)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("InitializeProcThreadAttributeList failed: %v", lastErr)
	}
	return attrList, nil
}

func updateProcThreadAttrWithPseudoConsole(attrList []byte, h hpcon) error {
	ret, _, lastErr := procUpdateProcThreadAttribute.Call(
		uintptr(unsafe.Pointer(&attrList[0])),
		0,
		procThreadAttributePseudoConsole,
		uintptr(h),
		unsafe.Sizeof(h),
		0, 0,
	)
	if ret == 0 {
		return fmt.Errorf("UpdateProcThreadAttribute failed: %v", lastErr)
	}
	return nil
}

func deleteProcThreadAttrList(attrList []byte) {
	if len(attrList) > 0 {
		procDeleteProcThreadAttrList.Call(uintptr(unsafe.Pointer(&attrList[0])))
	}
}

// buildEnvBlock packs env into a Windows double-null-terminated UTF-16
// environment block; empty entries are dropped so a stray terminator can't
// be mistaken for the block terminator.
func buildEnvBlock(env []string) *uint16 {
	if len(env) == 0 {
		return nil
	}
	var block []uint16
	for _, e := range env {
		if e == "" {
			continue
		}
		block = append(block, utf16.Encode([]rune(e))...)
		block = append(block, 0)
	}
	if len(block) == 0 {
		return nil
	}
	block = append(block, 0)
	return &block[0]
}
