package namesilo

import (
	"encoding/xml"
	"strings"
)

// envelope is the top-level <namesilo> document returned by every operation.
type envelope struct {
	XMLName xml.Name   `xml:"namesilo"`
	Request apiRequest `xml:"request"`
	Reply   apiReply   `xml:"reply"`
}

type apiRequest struct {
	Operation string `xml:"operation"`
	IP        string `xml:"ip"`
}

type apiReply struct {
	Code     string        `xml:"code"`
	Detail   string        `xml:"detail"`
	RecordID string        `xml:"record_id"`
	Records  []apiRecordEl `xml:"resource_record"`
}

// apiRecordEl captures every child of a <resource_record> element, in
// document order, without assuming a fixed field set.
type apiRecordEl struct {
	Fields []apiField `xml:",any"`
}

type apiField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// RawRecord is one <resource_record> element as an ordered list of
// sub-element names and their text.
type RawRecord struct {
	Fields []Field
}

// Field is a single sub-element of a resource record.
type Field struct {
	Name  string
	Value string
}

// Get returns the value of the first field with the given name.
func (r RawRecord) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Response is a validated, successful API reply.
type Response struct {
	Operation Operation
	Code      string
	Detail    string
	// RecordID is set by operations that create a record.
	RecordID string
	Records  []RawRecord
	Raw      []byte
}

func (r *apiReply) toRecords() []RawRecord {
	if len(r.Records) == 0 {
		return nil
	}
	records := make([]RawRecord, 0, len(r.Records))
	for _, el := range r.Records {
		raw := RawRecord{Fields: make([]Field, 0, len(el.Fields))}
		for _, f := range el.Fields {
			raw.Fields = append(raw.Fields, Field{
				Name:  f.XMLName.Local,
				Value: strings.TrimSpace(f.Value),
			})
		}
		records = append(records, raw)
	}
	return records
}
