package iso7816

import (
	"fmt"
)

// READ RECORD COMMAND LOGIC (ISO 7816-4):
// The READ RECORD command (INS 'B2') reads the content of one or more records
// from the current Elementary File (EF) or a specified SFI.
//
// P1 (Record Number or ID):
// - If P2 indicates "Record number" (Bits 3=1), P1 is the record number (00 = current).
// - If P2 indicates "Record identifier" (Bits 3=0), P1 is the record identifier.
//
// P2 (Reference Control):
// - Bits 8-4: Short File Identifier (SFI). If 0, use Current EF.
// - Bit 3:    0=Reference by ID, 1=Reference by Number.
// - Bits 2-1: Occurrence/Mode (First, Last, Next, Prev, or All).

// ReadRecordMode defines how to interpret P1 and which record(s) to read.
type ReadRecordMode byte

const (
	// P1 is Record IDENTIFIER (Bit 3 = 0)
	RefByID_FirstOccurrence    ReadRecordMode = 0b000
	RefByID_LastOccurrence     ReadRecordMode = 0b001
	RefByID_NextOccurrence     ReadRecordMode = 0b010
	RefByID_PreviousOccurrence ReadRecordMode = 0b011

	// P1 is Record NUMBER (Bit 3 = 1)
	RefByNum_ReadP1              ReadRecordMode = 0b100
	RefByNum_ReadAllFromP1       ReadRecordMode = 0b101
	RefByNum_ReadAllFromLastToP1 ReadRecordMode = 0b110
)

func (m ReadRecordMode) String() string {
	switch m {
	case RefByID_FirstOccurrence:
		return "Ref ID: First Occurrence"
	case RefByID_LastOccurrence:
		return "Ref ID: Last Occurrence"
	case RefByID_NextOccurrence:
		return "Ref ID: Next Occurrence"
	case RefByID_PreviousOccurrence:
		return "Ref ID: Previous Occurrence"
	case RefByNum_ReadP1:
		return "Ref Num: Read Record P1"
	case RefByNum_ReadAllFromP1:
		return "Ref Num: Read All from P1"
	case RefByNum_ReadAllFromLastToP1:
		return "Ref Num: Read All from Last to P1"
	default:
		return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
	}
}

// ReadRecord is the READ RECORD operation.
// Ne is derived from the reply buffer, so a card answering 6CXX or 61XX is
// handled by the Client like any other command.
type ReadRecord struct {
	SFI    byte
	Record byte
	Mode   ReadRecordMode
	Reply  []byte

	request Command
}

// NewReadRecord creates a READ RECORD operation. sfi 0 targets the current EF.
func NewReadRecord(sfi, p1 byte, mode ReadRecordMode, reply []byte) *ReadRecord {
	return &ReadRecord{SFI: sfi, Record: p1, Mode: mode, Reply: reply}
}

// ReadRecordNumber reads a specific record by its Number (Mode '100').
func ReadRecordNumber(sfi, recordNumber byte, reply []byte) *ReadRecord {
	return NewReadRecord(sfi, recordNumber, RefByNum_ReadP1, reply)
}

// ReadAllRecords reads all records starting from startRecordNumber (Mode '101').
func ReadAllRecords(sfi, startRecordNumber byte, reply []byte) *ReadRecord {
	return NewReadRecord(sfi, startRecordNumber, RefByNum_ReadAllFromP1, reply)
}

// P2 is (SFI << 3) | Mode (Table 49).
func (r *ReadRecord) P2() byte {
	return (r.SFI&0x1F)<<3 | byte(r.Mode&0x07)
}

func (r *ReadRecord) Build(cla Class) (Command, []byte) {
	r.request = NewCommand(cla, INS_READ_RECORD, r.Record, r.P2(), nil)
	return r.request, r.Reply
}

func (r *ReadRecord) Parse(resp Response) (*ReadRecordResult, error) {
	return &ReadRecordResult{Request: r.request, Response: resp}, nil
}
