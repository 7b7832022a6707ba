package gds

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFormat is returned for streams that are not well-formed GDSII.
var ErrFormat = errors.New("malformed GDSII stream")

// RecordType identifies a GDSII record.
type RecordType byte

const (
	RecHeader       RecordType = 0x00
	RecBgnLib       RecordType = 0x01
	RecLibName      RecordType = 0x02
	RecUnits        RecordType = 0x03
	RecEndLib       RecordType = 0x04
	RecBgnStr       RecordType = 0x05
	RecStrName      RecordType = 0x06
	RecEndStr       RecordType = 0x07
	RecBoundary     RecordType = 0x08
	RecPath         RecordType = 0x09
	RecSRef         RecordType = 0x0A
	RecARef         RecordType = 0x0B
	RecText         RecordType = 0x0C
	RecLayer        RecordType = 0x0D
	RecDatatype     RecordType = 0x0E
	RecWidth        RecordType = 0x0F
	RecXY           RecordType = 0x10
	RecEndEl        RecordType = 0x11
	RecSName        RecordType = 0x12
	RecColRow       RecordType = 0x13
	RecTextNode     RecordType = 0x14
	RecNode         RecordType = 0x15
	RecTextType     RecordType = 0x16
	RecPresentation RecordType = 0x17
	RecString       RecordType = 0x19
	RecStrans       RecordType = 0x1A
	RecMag          RecordType = 0x1B
	RecAngle        RecordType = 0x1C
	RecRefLibs      RecordType = 0x1F
	RecFonts        RecordType = 0x20
	RecPathType     RecordType = 0x21
	RecGenerations  RecordType = 0x22
	RecAttrTable    RecordType = 0x23
	RecElFlags      RecordType = 0x26
	RecNodeType     RecordType = 0x2A
	RecPropAttr     RecordType = 0x2B
	RecPropValue    RecordType = 0x2C
	RecBox          RecordType = 0x2D
	RecBoxType      RecordType = 0x2E
	RecPlex         RecordType = 0x2F
	RecBgnExtn      RecordType = 0x30
	RecEndExtn      RecordType = 0x31
	RecFormat       RecordType = 0x36
	RecMask         RecordType = 0x37
	RecEndMasks     RecordType = 0x38
)

// DataType identifies how a record payload is encoded.
type DataType byte

const (
	DataNone     DataType = 0
	DataBitArray DataType = 1
	DataInt16    DataType = 2
	DataInt32    DataType = 3
	DataReal4    DataType = 4
	DataReal8    DataType = 5
	DataASCII    DataType = 6
)

const (
	headerSize    = 4
	maxRecordSize = 0xFFFF
)

var recordNames = map[RecordType]string{
	RecHeader: "HEADER", RecBgnLib: "BGNLIB", RecLibName: "LIBNAME", RecUnits: "UNITS",
	RecEndLib: "ENDLIB", RecBgnStr: "BGNSTR", RecStrName: "STRNAME", RecEndStr: "ENDSTR",
	RecBoundary: "BOUNDARY", RecPath: "PATH", RecSRef: "SREF", RecARef: "AREF",
	RecText: "TEXT", RecLayer: "LAYER", RecDatatype: "DATATYPE", RecWidth: "WIDTH",
	RecXY: "XY", RecEndEl: "ENDEL", RecSName: "SNAME", RecColRow: "COLROW",
	RecTextNode: "TEXTNODE", RecNode: "NODE", RecTextType: "TEXTTYPE",
	RecPresentation: "PRESENTATION", RecString: "STRING", RecStrans: "STRANS",
	RecMag: "MAG", RecAngle: "ANGLE", RecRefLibs: "REFLIBS", RecFonts: "FONTS",
	RecPathType: "PATHTYPE", RecGenerations: "GENERATIONS", RecAttrTable: "ATTRTABLE",
	RecElFlags: "ELFLAGS", RecNodeType: "NODETYPE", RecPropAttr: "PROPATTR",
	RecPropValue: "PROPVALUE", RecBox: "BOX", RecBoxType: "BOXTYPE", RecPlex: "PLEX",
	RecBgnExtn: "BGNEXTN", RecEndExtn: "ENDEXTN", RecFormat: "FORMAT", RecMask: "MASK",
	RecEndMasks: "ENDMASKS",
}

func (t RecordType) String() string {
	if name, ok := recordNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RECORD(0x%02X)", byte(t))
}

// Record is a single decoded stream record.
type Record struct {
	Type     RecordType
	DataType DataType
	Data     []byte
}

// Int16s decodes a two-byte signed integer payload.
func (r Record) Int16s() ([]int16, error) {
	if r.DataType != DataInt16 || len(r.Data)%2 != 0 {
		return nil, r.payloadError("int16")
	}
	out := make([]int16, len(r.Data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.Data[2*i:]))
	}
	return out, nil
}

// Int32s decodes a four-byte signed integer payload.
func (r Record) Int32s() ([]int32, error) {
	if r.DataType != DataInt32 || len(r.Data)%4 != 0 {
		return nil, r.payloadError("int32")
	}
	out := make([]int32, len(r.Data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.Data[4*i:]))
	}
	return out, nil
}

// Reals decodes an eight-byte excess-64 real payload.
func (r Record) Reals() ([]float64, error) {
	if r.DataType != DataReal8 || len(r.Data)%8 != 0 {
		return nil, r.payloadError("real8")
	}
	out := make([]float64, len(r.Data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.Data[8*i:]))
	}
	return out, nil
}

// BitArray decodes a 16-bit flag word.
func (r Record) BitArray() (uint16, error) {
	if r.DataType != DataBitArray || len(r.Data) != 2 {
		return 0, r.payloadError("bitarray")
	}
	return binary.BigEndian.Uint16(r.Data), nil
}

// String decodes an ASCII payload, dropping NUL padding.
func (r Record) String() string {
	end := len(r.Data)
	for end > 0 && r.Data[end-1] == 0 {
		end--
	}
	return string(r.Data[:end])
}

func (r Record) payloadError(want string) error {
	return fmt.Errorf("%w: %s record has %d bytes of data type %d, want %s", ErrFormat, r.Type, len(r.Data), r.DataType, want)
}

// Reader reads records from a GDSII stream.
type Reader struct {
	r      *bufio.Reader
	header [headerSize]byte
	offset int64
}

// NewReader wraps r in a buffered record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the byte offset of the next record.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next returns the next record. It returns io.EOF at a clean end of stream.
// Zero-length padding words after ENDLIB are reported as io.EOF as well.
func (rd *Reader) Next() (Record, error) {
	if _, err := io.ReadFull(rd.r, rd.header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: truncated record header at offset %d", ErrFormat, rd.offset)
	}
	size := int(binary.BigEndian.Uint16(rd.header[:2]))
	if size == 0 {
		return Record{}, io.EOF
	}
	if size < headerSize || size%2 != 0 {
		return Record{}, fmt.Errorf("%w: invalid record length %d at offset %d", ErrFormat, size, rd.offset)
	}
	rec := Record{
		Type:     RecordType(rd.header[2]),
		DataType: DataType(rd.header[3]),
	}
	if size > headerSize {
		rec.Data = make([]byte, size-headerSize)
		if _, err := io.ReadFull(rd.r, rec.Data); err != nil {
			return Record{}, fmt.Errorf("%w: truncated %s record at offset %d", ErrFormat, rec.Type, rd.offset)
		}
	}
	rd.offset += int64(size)
	return rec, nil
}

// Writer writes records to a GDSII stream.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w in a buffered record writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (wr *Writer) write(t RecordType, dt DataType, data []byte) {
	if wr.err != nil {
		return
	}
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	size := headerSize + len(data)
	if size > maxRecordSize {
		wr.err = fmt.Errorf("gds: %s record too large (%d bytes)", t, size)
		return
	}
	var hdr [headerSize]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(size))
	hdr[2] = byte(t)
	hdr[3] = byte(dt)
	if _, err := wr.w.Write(hdr[:]); err != nil {
		wr.err = err
		return
	}
	if _, err := wr.w.Write(data); err != nil {
		wr.err = err
	}
}

// Empty writes a record without payload.
func (wr *Writer) Empty(t RecordType) {
	wr.write(t, DataNone, nil)
}

// Int16s writes a two-byte integer record.
func (wr *Writer) Int16s(t RecordType, values ...int16) {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[2*i:], uint16(v))
	}
	wr.write(t, DataInt16, data)
}

// Int32s writes a four-byte integer record.
func (wr *Writer) Int32s(t RecordType, values ...int32) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(data[4*i:], uint32(v))
	}
	wr.write(t, DataInt32, data)
}

// Reals writes an eight-byte real record.
func (wr *Writer) Reals(t RecordType, values ...float64) {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(data[8*i:], encodeReal8(v))
	}
	wr.write(t, DataReal8, data)
}

// BitArray writes a 16-bit flag record.
func (wr *Writer) BitArray(t RecordType, flags uint16) {
	var data [2]byte
	binary.BigEndian.PutUint16(data[:], flags)
	wr.write(t, DataBitArray, data[:])
}

// ASCII writes a string record, NUL padded to even length.
func (wr *Writer) ASCII(t RecordType, s string) {
	wr.write(t, DataASCII, []byte(s))
}

// Flush flushes buffered data and returns the first error encountered.
func (wr *Writer) Flush() error {
	if wr.err != nil {
		return wr.err
	}
	return wr.w.Flush()
}
