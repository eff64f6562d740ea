package dimse

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// NewElement builds a DICOM element from the value types the command/status
// builders in this package pass around: scalars are wrapped in the
// single-element slices dicom.NewElement expects, and []string, []int,
// []byte and []uint32 values give multi-value elements.
func NewElement(t tag.Tag, value interface{}) (*dicom.Element, error) {
	switch v := value.(type) {
	case string:
		return dicom.NewElement(t, []string{v})
	case []string:
		return dicom.NewElement(t, v)
	case uint16:
		return dicom.NewElement(t, []int{int(v)})
	case uint32:
		return dicom.NewElement(t, []int{int(v)})
	case int:
		return dicom.NewElement(t, []int{v})
	case []int:
		return dicom.NewElement(t, v)
	case []byte:
		return dicom.NewElement(t, v)
	case []uint32:
		ints := make([]int, len(v))
		for i, n := range v {
			ints[i] = int(n)
		}
		return dicom.NewElement(t, ints)
	default:
		return nil, fmt.Errorf("dimse: NewElement: unsupported value type %T for tag %v", value, t)
	}
}

// EncodeElements writes elems to out as an Implicit VR Little Endian
// command stream. P3.7 6.3.1 mandates this transfer syntax for every
// DIMSE command set regardless of the data set's negotiated syntax.
func EncodeElements(out io.Writer, elems []*dicom.Element) error {
	writer, err := dicom.NewWriter(out)
	if err != nil {
		return fmt.Errorf("EncodeElements: error creating writer: %w", err)
	}
	// DIMSE command sets are always Implicit VR Little Endian. P3.7 6.3.1.
	writer.SetTransferSyntax(binary.LittleEndian, true)
	for _, elem := range elems {
		if err := writer.WriteElement(elem); err != nil {
			return fmt.Errorf("EncodeElements: error writing element %v: %w", elem.Tag, err)
		}
	}
	return nil
}
