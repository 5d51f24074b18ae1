package iso7816

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/apdu/pkg/tlv"
)

// FILE CONTROL INFORMATION (FCI) Logic according to ISO/IEC 7816-4.
//
// When a SELECT command is issued, the card may return data describing the selected file.
// The format of this data is controlled by the file control bits of P2 (see FileControl).
//
// STRUCTURES:
// 1. FCI (File Control Information) - Tag '6F': A wrapper template.
// 2. FCP (File Control Parameters) - Tag '62': Technical attributes.
// 3. FMD (File Management Data) - Tag '64': Administrative data.
//
// Decoding per requested control:
// - FCI: optional '6F' wrapper containing '62' and/or '64', or a flat list of their tags.
// - FCP: mandatory '62'.
// - FMD: mandatory '64'.
// - None: nothing to decode.
//
// Values are BER-TLV (multi-byte tags and lengths), unlike the flat iterator of Records.

// FCPTemplate (File Control Parameters) - Tag '62'.
type FCPTemplate struct {
	DataSizeExcludingStruct []byte `tlv:"80" fmt:"int"`
	TotalFileSize           []byte `tlv:"81" fmt:"int"`
	FileDescriptor          []byte `tlv:"82"`
	FileIdentifier          []byte `tlv:"83"`
	DFName                  []byte `tlv:"84" fmt:"ascii"`
	ProprietaryInfoRaw      []byte `tlv:"85"`
	SecurityAttrProprietary []byte `tlv:"86"`
	ExtFileControlInfoID    []byte `tlv:"87"`
	ShortEFIdentifier       []byte `tlv:"88"`
	LifeCycleStatus         []byte `tlv:"8A"`
	SecAttrRefExpanded      []byte `tlv:"8B"`
	SecurityAttrCompact     []byte `tlv:"8C"`
	SecEnvTemplateID        []byte `tlv:"8D"`
	ChannelSecurityAttr     []byte `tlv:"8E"`
	SecAttrTemplateData     []byte `tlv:"A0"`
	SecAttrTemplateProp     []byte `tlv:"A1"`
	OneOrMorePairs          []byte `tlv:"A2"`
	ProprietaryDataBER      []byte `tlv:"A5"`
	SecurityAttrExpanded    []byte `tlv:"AB"`
	CryptoMechanismID       []byte `tlv:"AC"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FMDTemplate (File Management Data) - Tag '64'.
type FMDTemplate struct {
	ApplicationIdentifier []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel      []byte `tlv:"50" fmt:"ascii"`
	ProprietaryData53     []byte `tlv:"53"`
	ProprietaryData73     []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileControlInfo represents the parsed result of a SELECT command.
type FileControlInfo struct {
	FCP *FCPTemplate
	FMD *FMDTemplate

	// Unknown contains TLV tags that did not match FCP or FMD definitions
	Unknown []bertlv.TLV // (only populated in "flat" FCI parsing mode).

	ProprietaryRawData []byte
}

// AID returns the DF name (tag 84) from FCP, falling back to FMD.
func (fci *FileControlInfo) AID() []byte {
	if fci.FCP != nil && len(fci.FCP.DFName) > 0 {
		return fci.FCP.DFName
	}
	if fci.FMD != nil && len(fci.FMD.ApplicationIdentifier) > 0 {
		return fci.FMD.ApplicationIdentifier
	}
	return nil
}

// DFName returns the Dedicated File Name (Tag 84) from FCP.
func (fci *FileControlInfo) DFName() []byte {
	if fci.FCP != nil {
		return fci.FCP.DFName
	}
	return nil
}

// ApplicationLabel returns the Application Label (Tag 50) from FMD.
func (fci *FileControlInfo) ApplicationLabel() []byte {
	if fci.FMD != nil {
		return fci.FMD.ApplicationLabel
	}
	return nil
}

// ParseSelectData parses the data field of a SELECT response according to the
// requested file control. It returns nil when there is nothing to decode.
func ParseSelectData(data []byte, ctrl FileControl) (*FileControlInfo, error) {
	if len(data) == 0 || ctrl == ReturnNoData {
		return nil, nil
	}

	// Proprietary encodings start in the private class.
	if data[0] >= 0xC0 {
		return &FileControlInfo{ProprietaryRawData: data}, nil
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	fci := &FileControlInfo{
		FCP: &FCPTemplate{},
		FMD: &FMDTemplate{},
	}

	switch ctrl {
	case ReturnFCP:
		return fci, requireTemplate(packets, "62", fci.FCP)
	case ReturnFMD:
		return fci, requireTemplate(packets, "64", fci.FMD)
	case ReturnFCI:
		if err := parseFCI(tlv.Children(packets, "6F"), fci); err != nil {
			return nil, err
		}
		return fci, nil
	}
	return nil, fmt.Errorf("unknown file control %02X", byte(ctrl))
}

// parseFCI fills fci from the content of a '6F' template. Without explicit
// '62'/'64' templates the tags are spread flat: FCP tags first, then FMD, and
// whatever is left ends in fci.Unknown.
func parseFCI(packets []bertlv.TLV, fci *FileControlInfo) error {
	foundFCP, err := decodeTemplate(packets, "62", fci.FCP)
	if err != nil {
		return err
	}
	foundFMD, err := decodeTemplate(packets, "64", fci.FMD)
	if err != nil {
		return err
	}
	if foundFCP || foundFMD {
		return nil
	}

	if err := tlv.UnmarshalPackets(packets, fci.FCP); err != nil {
		return fmt.Errorf("flat FCP unmarshal failed: %w", err)
	}
	rest := fci.FCP.Unknown
	fci.FCP.Unknown = nil

	if err := tlv.UnmarshalPackets(rest, fci.FMD); err != nil {
		return fmt.Errorf("flat FMD unmarshal failed: %w", err)
	}
	fci.Unknown = fci.FMD.Unknown
	fci.FMD.Unknown = nil
	return nil
}

func requireTemplate(packets []bertlv.TLV, tag string, target any) error {
	found, err := decodeTemplate(packets, tag, target)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("mandatory tag '%s' not found", tag)
	}
	return nil
}

// decodeTemplate unmarshals the children of the first entry carrying tag.
func decodeTemplate(packets []bertlv.TLV, tag string, target any) (bool, error) {
	for _, p := range packets {
		if !strings.EqualFold(p.Tag, tag) {
			continue
		}
		if err := tlv.UnmarshalPackets(p.TLVs, target); err != nil {
			return true, fmt.Errorf("template '%s': %w", tag, err)
		}
		return true, nil
	}
	return false, nil
}
