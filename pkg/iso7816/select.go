package iso7816

import (
	"fmt"
)

// SELECT COMMAND LOGIC (ISO 7816-4):
// The SELECT command (INS 'A4') opens a file (MF, DF, or EF) or an application.
//
// P1 (Selection Method):
// Indicates how the file is targeted (by ID, by Name/AID, by Path, etc.).
//
// P2 (Selection Control):
// - Bits 4-3: File control returned (None, FCI, FCP or FMD).
// - Bits 2-1: Occurrence (First, Last, Next, Previous).

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileIDMethod    SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04 // Select by AID
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileIDMethod:
		return "Select by File ID"
	case SelectChildDF:
		return "Select Child DF"
	case SelectEFUnderCurrentDF:
		return "Select EF under current DF"
	case SelectParentDF:
		return "Select Parent DF"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	case SelectPathFromMF:
		return "Select Path from MF"
	case SelectPathFromCurrentDF:
		return "Select Path from Current DF"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// FileOccurrence defines which instance of the file to select (Bits 2-1 of P2).
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b0000_00_00
	LastOccurrence        FileOccurrence = 0b0000_00_01
	NextOccurrence        FileOccurrence = 0b0000_00_10
	PreviousOccurrence    FileOccurrence = 0b0000_00_11
)

func (f FileOccurrence) String() string {
	switch f {
	case FirstOrOnlyOccurrence:
		return "First/Only"
	case LastOccurrence:
		return "Last"
	case NextOccurrence:
		return "Next"
	case PreviousOccurrence:
		return "Previous"
	default:
		return "Unknown Occurrence"
	}
}

// FileControl defines what file control data the card returns (Bits 4-3 of P2).
type FileControl byte

const (
	ReturnNoData FileControl = 0b0000_00_00
	ReturnFCI    FileControl = 0b0000_01_00
	ReturnFCP    FileControl = 0b0000_10_00
	ReturnFMD    FileControl = 0b0000_11_00
)

func (s FileControl) String() string {
	switch s {
	case ReturnNoData:
		return "No Response Data"
	case ReturnFCI:
		return "Return FCI"
	case ReturnFCP:
		return "Return FCP"
	case ReturnFMD:
		return "Return FMD"
	default:
		return "Unknown Control"
	}
}

// Select is the SELECT operation.
// Target is borrowed: the AID bytes or the 2-byte file identifier.
type Select struct {
	Method     SelectionMethod
	Target     []byte
	Occurrence FileOccurrence
	Control    FileControl
	Reply      []byte

	request Command
}

// SelectByAID selects an application by its DF name.
func SelectByAID(aid []byte, reply []byte) *Select {
	return &Select{Method: SelectByDFName, Target: aid, Reply: reply}
}

// SelectByFileID selects a file by its 2-byte identifier.
func SelectByFileID(fid uint16, reply []byte) *Select {
	return &Select{
		Method: SelectByFileIDMethod,
		Target: []byte{byte(fid >> 8), byte(fid)},
		Reply:  reply,
	}
}

// SelectMF selects the Master File (3F00).
func SelectMF(reply []byte) *Select {
	return SelectByFileID(0x3F00, reply)
}

// WithOccurrence sets the occurrence bits of P2.
func (s *Select) WithOccurrence(o FileOccurrence) *Select {
	s.Occurrence = o
	return s
}

// WithFileControl sets the file control bits of P2.
func (s *Select) WithFileControl(fc FileControl) *Select {
	s.Control = fc
	return s
}

// P2 combines the file control and occurrence bits.
func (s *Select) P2() byte {
	return byte(s.Control&0x0C) | byte(s.Occurrence&0x03)
}

func (s *Select) Build(cla Class) (Command, []byte) {
	s.request = NewCommand(cla, INS_SELECT, byte(s.Method), s.P2(), s.Target)
	return s.request, s.Reply
}

// Parse never fails: a refused selection is reported through SelectResult.Err.
func (s *Select) Parse(resp Response) (*SelectResult, error) {
	return &SelectResult{
		Request:  s.request,
		Control:  s.Control,
		Response: resp,
	}, nil
}
