package dimse

import (
	"bytes"
	"fmt"

	"github.com/dcmnet/ul/pdu"
	"github.com/suyashkumar/dicom"
)

// CommandAssembler reassembles a DIMSE command message and its optional
// data set payload from a sequence of P-DATA-TF PDUs belonging to one
// presentation context. P3.8 9.3.5, P3.7 6.3.
type CommandAssembler struct {
	contextID      byte
	commandBytes   []byte
	command        Message
	dataBytes      []byte
	readAllCommand bool
	readAllData    bool
}

// AddDataPDU is called for each P-DATA-TF PDU received from the network.
// Once the command fragment(s) and, if HasData(), the data fragment(s)
// have all arrived, it returns the presentation context ID, the decoded
// command, and the raw data set bytes. While more fragments are still
// needed it returns a nil command and no error.
func (a *CommandAssembler) AddDataPDU(p *pdu.PDataTf) (byte, Message, []byte, error) {
	for _, item := range p.Items {
		if a.contextID == 0 {
			a.contextID = item.ContextID
		} else if a.contextID != item.ContextID {
			return 0, nil, nil, fmt.Errorf("dimse: mixed presentation context in P-DATA-TF: %d vs %d", a.contextID, item.ContextID)
		}
		if item.IsCommand() {
			a.commandBytes = append(a.commandBytes, item.Data...)
			if item.IsLastFragment() {
				if a.readAllCommand {
					return 0, nil, nil, fmt.Errorf("dimse: P-DATA-TF: more than one command fragment marked last")
				}
				a.readAllCommand = true
			}
		} else {
			a.dataBytes = append(a.dataBytes, item.Data...)
			if item.IsLastFragment() {
				if a.readAllData {
					return 0, nil, nil, fmt.Errorf("dimse: P-DATA-TF: more than one data fragment marked last")
				}
				a.readAllData = true
			}
		}
	}
	if !a.readAllCommand {
		return 0, nil, nil, nil
	}
	if a.command == nil {
		reader := bytes.NewReader(a.commandBytes)
		dataset, err := dicom.Parse(reader, int64(reader.Len()), nil, dicom.SkipPixelData(), dicom.SkipMetadataReadOnNewParserInit())
		if err != nil {
			return 0, nil, nil, fmt.Errorf("dimse: failed to parse command set: %w", err)
		}
		a.command, err = ReadMessage(&dataset)
		if err != nil {
			return 0, nil, nil, err
		}
	}
	if a.command.HasData() && !a.readAllData {
		return 0, nil, nil, nil
	}
	contextID, command, dataBytes := a.contextID, a.command, a.dataBytes
	*a = CommandAssembler{}
	return contextID, command, dataBytes, nil
}
