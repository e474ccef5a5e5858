// Package telegram implements the Pfeiffer RS-485 telegram frame format used
// by the vacuum pumps and gauge controllers on the bench. Frames are ASCII:
// a three digit bus address, an action code, a three digit parameter number,
// a payload and a modulo-256 checksum, terminated by carriage return.
package telegram

import (
	"errors"
	"fmt"
	"strconv"
)

// Terminator ends every telegram on the wire.
const Terminator = '\r'

// Device-reported payload errors.
var (
	ErrNoDef = errors.New("undefined parameter number")
	ErrRange = errors.New("data is out of range")
	ErrLogic = errors.New("logic access violation")
)

// Response is one parsed telegram from a device.
type Response struct {
	Addr  int
	RW    int
	Param int
	Data  string
}

// BuildQuery returns the data-request frame for a parameter:
// "aaa00ppp02=?" plus checksum and terminator.
func BuildQuery(addr, param int) []byte {
	c := fmt.Sprintf("%03d00%03d02=?", addr, param)
	return seal(c)
}

// BuildControl returns the control frame writing data to a parameter:
// "aaa10ppplldata" plus checksum and terminator. Devices answer queries with
// the same shape, so simulators and tests reuse it to craft replies.
func BuildControl(addr, param int, data string) []byte {
	c := fmt.Sprintf("%03d10%03d%02d%s", addr, param, len(data), data)
	return seal(c)
}

func seal(c string) []byte {
	return []byte(fmt.Sprintf("%s%03d%c", c, Checksum([]byte(c)), Terminator))
}

// Checksum is the modulo-256 sum of the frame bytes before the checksum
// field.
func Checksum(frame []byte) int {
	sum := 0
	for _, b := range frame {
		sum += int(b)
	}
	return sum % 256
}

// Parse validates length, termination and checksum of a received frame and
// extracts its fields. Device-reported payload errors come back as ErrNoDef,
// ErrRange or ErrLogic.
func Parse(frame []byte) (Response, error) {
	r := string(frame)
	if len(r) < 14 {
		return Response{}, fmt.Errorf("telegram too short to be valid (%d bytes)", len(r))
	}
	if r[len(r)-1] != Terminator {
		return Response{}, errors.New("telegram incorrectly terminated")
	}

	chk, err := strconv.Atoi(r[len(r)-4 : len(r)-1])
	if err != nil {
		return Response{}, fmt.Errorf("malformed checksum field: %w", err)
	}
	if chk != Checksum([]byte(r[:len(r)-4])) {
		return Response{}, errors.New("invalid checksum in telegram")
	}

	addr, err := strconv.Atoi(r[:3])
	if err != nil {
		return Response{}, fmt.Errorf("malformed address field: %w", err)
	}
	rw, err := strconv.Atoi(r[3:4])
	if err != nil {
		return Response{}, fmt.Errorf("malformed action field: %w", err)
	}
	param, err := strconv.Atoi(r[5:8])
	if err != nil {
		return Response{}, fmt.Errorf("malformed parameter field: %w", err)
	}
	data := r[10 : len(r)-4]

	switch data {
	case "NO_DEF":
		return Response{}, ErrNoDef
	case "_RANGE":
		return Response{}, ErrRange
	case "_LOGIC":
		return Response{}, ErrLogic
	}

	return Response{Addr: addr, RW: rw, Param: param, Data: data}, nil
}
