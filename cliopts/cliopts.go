// Package cliopts defines the canonical command-line flag set shared
// by DICOM Upper Layer client tools (echoscu/storescu/findscu-style
// front ends), and keyword-pathing parsing for `-k` identifier
// construction.
package cliopts

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// Flags is the canonical flag set every front-end command should
// accept, per the CLI surface option list.
var Flags = []cli.Flag{
	&cli.StringFlag{Name: "calling-aet", Usage: "calling AE title", Value: "DCMNET_SCU"},
	&cli.StringFlag{Name: "called-aet", Usage: "called AE title", Required: true},
	&cli.StringFlag{Name: "host", Usage: "peer host", Value: "localhost"},
	&cli.IntFlag{Name: "port", Usage: "peer port", Value: 104},
	&cli.UintFlag{Name: "max-pdu", Usage: "maximum PDU length advertised to the peer, 0 for unlimited", Value: 16384},
	&cli.DurationFlag{Name: "acse-timeout", Usage: "association establishment/release timeout", Value: 30 * time.Second},
	&cli.DurationFlag{Name: "dimse-timeout", Usage: "per-DIMSE-operation response timeout", Value: 30 * time.Second},
	&cli.DurationFlag{Name: "timeout", Usage: "overall operation timeout, 0 for none"},
	&cli.StringSliceFlag{Name: "propose-ts", Usage: "transfer syntax UID to propose, repeatable; defaults to Implicit VR Little Endian"},
	&cli.BoolFlag{Name: "abort", Usage: "abort rather than release the association when the operation completes"},
	&cli.StringSliceFlag{Name: "k", Usage: "keyword=value or Seq[i].Elem=value identifier key, repeatable"},
}

// Options is what FromContext maps the canonical flags into.
type Options struct {
	CallingAET   string
	CalledAET    string
	Host         string
	Port         int
	MaxPDU       uint32
	ACSETimeout  time.Duration
	DIMSETimeout time.Duration
	Timeout      time.Duration
	ProposeTS    []string
	Abort        bool
	Keys         []KeyValue
}

// KeyValue is one parsed `-k` keyword-pathing entry. Path is the
// left-hand side verbatim ("PatientName" or "Seq[0].Elem"); resolving
// it to a concrete dicom.Tag and building the identifier dataset is
// left to the caller, since that resolution needs a keyword-to-tag
// table this package does not carry.
type KeyValue struct {
	Path  string
	Value string
}

// FromContext maps the canonical flags off c into an Options.
func FromContext(c *cli.Context) (Options, error) {
	keys, err := ParseKeys(c.StringSlice("k"))
	if err != nil {
		return Options{}, err
	}
	return Options{
		CallingAET:   c.String("calling-aet"),
		CalledAET:    c.String("called-aet"),
		Host:         c.String("host"),
		Port:         c.Int("port"),
		MaxPDU:       uint32(c.Uint("max-pdu")),
		ACSETimeout:  c.Duration("acse-timeout"),
		DIMSETimeout: c.Duration("dimse-timeout"),
		Timeout:      c.Duration("timeout"),
		ProposeTS:    c.StringSlice("propose-ts"),
		Abort:        c.Bool("abort"),
		Keys:         keys,
	}, nil
}

// ParseKeys parses a set of `NAME=value` or `Seq[i].Elem=value`
// keyword-pathing strings.
func ParseKeys(raw []string) ([]KeyValue, error) {
	out := make([]KeyValue, 0, len(raw))
	for _, kv := range raw {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			return nil, fmt.Errorf("cliopts: malformed -k %q, want NAME=value", kv)
		}
		out = append(out, KeyValue{Path: kv[:idx], Value: kv[idx+1:]})
	}
	return out, nil
}
