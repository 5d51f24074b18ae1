package iso7816

import (
	"fmt"

	"github.com/gregLibert/apdu/pkg/bits"
)

// Instruction Byte (INS) according to ISO/IEC 7816-4.
//
// Bit 1 of an interindustry INS often selects the data field format:
// 0 for plain data, 1 for BER-TLV (READ BINARY B0 vs B1).
// INS values whose upper nibble is 6 or 9 are invalid: they are the SW1 values
// and procedure bytes of the ISO/IEC 7816-3 transmission protocols.

// InsCode is the instruction byte of a command.
type InsCode byte

// Standard Instruction (INS) codes as defined in ISO/IEC 7816-4.
const (
	INS_DEACTIVATE_FILE             InsCode = 0x04
	INS_ERASE_RECORD                InsCode = 0x0C
	INS_ERASE_BINARY                InsCode = 0x0E
	INS_VERIFY                      InsCode = 0x20
	INS_MANAGE_SECURITY_ENVIRONMENT InsCode = 0x22
	INS_CHANGE_REFERENCE_DATA       InsCode = 0x24
	INS_PERFORM_SECURITY_OPERATION  InsCode = 0x2A
	INS_RESET_RETRY_COUNTER         InsCode = 0x2C
	INS_ACTIVATE_FILE               InsCode = 0x44
	INS_GENERATE_ASYMMETRIC_KEY     InsCode = 0x46
	INS_MANAGE_CHANNEL              InsCode = 0x70
	INS_EXTERNAL_AUTHENTICATE       InsCode = 0x82
	INS_GET_CHALLENGE               InsCode = 0x84
	INS_GENERAL_AUTHENTICATE        InsCode = 0x86
	INS_INTERNAL_AUTHENTICATE       InsCode = 0x88
	INS_SEARCH_RECORD               InsCode = 0xA2
	INS_SELECT                      InsCode = 0xA4
	INS_READ_BINARY                 InsCode = 0xB0
	INS_READ_BINARY_BER             InsCode = 0xB1
	INS_READ_RECORD                 InsCode = 0xB2
	INS_READ_RECORD_BER             InsCode = 0xB3
	INS_GET_RESPONSE                InsCode = 0xC0
	INS_ENVELOPE                    InsCode = 0xC2
	INS_GET_DATA                    InsCode = 0xCA
	INS_GET_DATA_BER                InsCode = 0xCB
	INS_WRITE_BINARY                InsCode = 0xD0
	INS_WRITE_RECORD                InsCode = 0xD2
	INS_UPDATE_BINARY               InsCode = 0xD6
	INS_PUT_DATA                    InsCode = 0xDA
	INS_PUT_DATA_BER                InsCode = 0xDB
	INS_UPDATE_RECORD               InsCode = 0xDC
	INS_CREATE_FILE                 InsCode = 0xE0
	INS_APPEND_RECORD               InsCode = 0xE2
	INS_DELETE_FILE                 InsCode = 0xE4
	INS_TERMINATE_DF                InsCode = 0xE6
	INS_TERMINATE_EF                InsCode = 0xE8
	INS_TERMINATE_CARD_USAGE        InsCode = 0xFE
)

var insNames = map[InsCode]string{
	INS_DEACTIVATE_FILE:             "DEACTIVATE FILE",
	INS_ERASE_RECORD:                "ERASE RECORD",
	INS_ERASE_BINARY:                "ERASE BINARY",
	INS_VERIFY:                      "VERIFY",
	INS_MANAGE_SECURITY_ENVIRONMENT: "MANAGE SECURITY ENVIRONMENT",
	INS_CHANGE_REFERENCE_DATA:       "CHANGE REFERENCE DATA",
	INS_PERFORM_SECURITY_OPERATION:  "PERFORM SECURITY OPERATION",
	INS_RESET_RETRY_COUNTER:         "RESET RETRY COUNTER",
	INS_ACTIVATE_FILE:               "ACTIVATE FILE",
	INS_GENERATE_ASYMMETRIC_KEY:     "GENERATE ASYMMETRIC KEY PAIR",
	INS_MANAGE_CHANNEL:              "MANAGE CHANNEL",
	INS_EXTERNAL_AUTHENTICATE:       "EXTERNAL AUTHENTICATE",
	INS_GET_CHALLENGE:               "GET CHALLENGE",
	INS_GENERAL_AUTHENTICATE:        "GENERAL AUTHENTICATE",
	INS_INTERNAL_AUTHENTICATE:       "INTERNAL AUTHENTICATE",
	INS_SEARCH_RECORD:               "SEARCH RECORD",
	INS_SELECT:                      "SELECT",
	INS_READ_BINARY:                 "READ BINARY",
	INS_READ_BINARY_BER:             "READ BINARY",
	INS_READ_RECORD:                 "READ RECORD",
	INS_READ_RECORD_BER:             "READ RECORD",
	INS_GET_RESPONSE:                "GET RESPONSE",
	INS_ENVELOPE:                    "ENVELOPE",
	INS_GET_DATA:                    "GET DATA",
	INS_GET_DATA_BER:                "GET DATA",
	INS_WRITE_BINARY:                "WRITE BINARY",
	INS_WRITE_RECORD:                "WRITE RECORD",
	INS_UPDATE_BINARY:               "UPDATE BINARY",
	INS_PUT_DATA:                    "PUT DATA",
	INS_PUT_DATA_BER:                "PUT DATA",
	INS_UPDATE_RECORD:               "UPDATE RECORD",
	INS_CREATE_FILE:                 "CREATE FILE",
	INS_APPEND_RECORD:               "APPEND RECORD",
	INS_DELETE_FILE:                 "DELETE FILE",
	INS_TERMINATE_DF:                "TERMINATE DF",
	INS_TERMINATE_EF:                "TERMINATE EF",
	INS_TERMINATE_CARD_USAGE:        "TERMINATE CARD USAGE",
}

// Validate rejects the reserved 6X and 9X values.
func (i InsCode) Validate() error {
	switch byte(i) & 0xF0 {
	case 0x60, 0x90:
		return fmt.Errorf("%w: 0x%02X (6X and 9X are reserved)", ErrInvalidInstruction, byte(i))
	}
	return nil
}

// IsBERTLV reports whether bit 1 asks for a BER-TLV data field.
func (i InsCode) IsBERTLV() bool {
	return bits.IsSet(byte(i), 1)
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS %02X", byte(i))
}

// Verbose returns a human-readable description of the instruction.
func (i InsCode) Verbose() string {
	format := "Standard"
	if i.IsBERTLV() {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i), i, format)
}
