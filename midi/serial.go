package midi

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// DefaultBaud is the DIN MIDI wire rate.
const DefaultBaud = 31250

// Serial reads raw MIDI bytes from a serial device. Reads return arbitrary
// fragments of messages, which the Decoder reassembles.
type Serial struct {
	port   serial.Port
	done   chan struct{}
	exited chan struct{}
	Name   string
}

// OpenSerial opens the named serial device and starts decoding its bytes.
func OpenSerial(name string, baud int, dec *Decoder) (*Serial, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	// a finite timeout lets the reader notice Close
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		p.Close()
		return nil, fmt.Errorf("serial: %s: %w", name, err)
	}
	s := &Serial{
		port:   p,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		Name:   name,
	}
	go func() {
		defer close(s.exited)
		if err := pump(s.done, p, dec); err != nil {
			glog.Errorf("serial: %s: %v", name, err)
		}
	}()
	glog.Infof("serial: reading midi from %s at %d baud", name, baud)
	return s, nil
}

// Close stops the reader and closes the port.
func (s *Serial) Close() error {
	close(s.done)
	err := s.port.Close()
	<-s.exited
	return err
}

// pump copies r into w until done is closed or r fails. Zero length reads are
// timeouts and are retried.
func pump(done <-chan struct{}, r io.Reader, w io.Writer) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-done:
			return nil
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
		}
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
