package gds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// STRANS flag bits.
const (
	stransReflect  uint16 = 0x8000
	stransAbsMag   uint16 = 0x0004
	stransAbsAngle uint16 = 0x0002
)

// Layer is a (layer number, datatype) pair. For text elements the second
// member is the text type.
type Layer struct {
	Number   int16
	Datatype int16
}

func (l Layer) String() string {
	return fmt.Sprintf("%d/%d", l.Number, l.Datatype)
}

// Point is a coordinate in database units.
type Point struct {
	X int32
	Y int32
}

// Strans is the transformation applied to references and texts. Reflection
// about the x axis happens before magnification and rotation.
type Strans struct {
	Reflect  bool
	AbsMag   bool
	AbsAngle bool
	// Mag is the magnification factor; zero means 1.
	Mag float64
	// Angle is the counterclockwise rotation in degrees.
	Angle float64
}

// Magnification returns Mag, treating the zero value as 1.
func (s Strans) Magnification() float64 {
	if s.Mag == 0 {
		return 1
	}
	return s.Mag
}

func (s Strans) isIdentity() bool {
	return !s.Reflect && !s.AbsMag && !s.AbsAngle && s.Magnification() == 1 && s.Angle == 0
}

// Boundary is a closed polygon.
type Boundary struct {
	Layer Layer
	XY    []Point
}

// Path is a wire described by its centerline.
type Path struct {
	Layer    Layer
	PathType int16
	Width    int32
	XY       []Point
}

// Text is a label anchored at Position.
type Text struct {
	Layer    Layer
	Position Point
	Text     string
	Strans   Strans
}

// Reference places another structure. Single references (SREF) have one XY
// point and zero Cols/Rows; array references (AREF) have three XY points:
// origin, origin displaced by Cols column pitches and origin displaced by Rows
// row pitches.
type Reference struct {
	Name   string
	Strans Strans
	Cols   int16
	Rows   int16
	XY     []Point
}

// IsArray reports whether r is an AREF.
func (r Reference) IsArray() bool {
	return r.Cols > 0 || r.Rows > 0
}

// Structure is a named cell.
type Structure struct {
	Name       string
	Boundaries []Boundary
	Paths      []Path
	Texts      []Text
	References []Reference
}

// Library is a decoded GDSII stream.
type Library struct {
	Name string
	// UserUnit is the size of a database unit in user units.
	UserUnit float64
	// MeterUnit is the size of a database unit in meters.
	MeterUnit  float64
	Modified   time.Time
	Structures []*Structure
}

// Structure returns the structure with the given name.
func (l *Library) Structure(name string) (*Structure, bool) {
	for _, s := range l.Structures {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ReadFile decodes the GDSII file at path.
func ReadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GDS file: %w", err)
	}
	defer f.Close()

	lib, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// Decode reads a complete library from r.
func Decode(r io.Reader) (*Library, error) {
	rd := NewReader(r)
	lib := &Library{}
	var (
		current *Structure
		el      *element
		sawLib  bool
	)

	for {
		offset := rd.Offset()
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: stream ended before ENDLIB", ErrFormat)
		}
		if err != nil {
			return nil, err
		}

		switch rec.Type {
		case RecHeader, RecRefLibs, RecFonts, RecGenerations, RecAttrTable,
			RecFormat, RecMask, RecEndMasks:
		case RecBgnLib:
			sawLib = true
			if stamp, err := rec.Int16s(); err == nil && len(stamp) >= 6 {
				lib.Modified = decodeTimestamp(stamp[:6])
			}
		case RecLibName:
			lib.Name = rec.String()
		case RecUnits:
			units, err := rec.Reals()
			if err != nil {
				return nil, err
			}
			if len(units) != 2 {
				return nil, fmt.Errorf("%w: UNITS has %d values", ErrFormat, len(units))
			}
			lib.UserUnit, lib.MeterUnit = units[0], units[1]
		case RecBgnStr:
			if !sawLib || current != nil {
				return nil, unexpected(rec, offset)
			}
			current = &Structure{}
		case RecStrName:
			if current == nil {
				return nil, unexpected(rec, offset)
			}
			current.Name = rec.String()
		case RecEndStr:
			if current == nil || el != nil {
				return nil, unexpected(rec, offset)
			}
			lib.Structures = append(lib.Structures, current)
			current = nil
		case RecBoundary, RecPath, RecSRef, RecARef, RecText, RecBox, RecNode:
			if current == nil || el != nil {
				return nil, unexpected(rec, offset)
			}
			el = &element{kind: rec.Type}
		case RecEndEl:
			if current == nil || el == nil {
				return nil, unexpected(rec, offset)
			}
			if err := el.addTo(current); err != nil {
				return nil, err
			}
			el = nil
		case RecEndLib:
			if current != nil {
				return nil, unexpected(rec, offset)
			}
			if lib.UserUnit == 0 {
				return nil, fmt.Errorf("%w: missing UNITS record", ErrFormat)
			}
			return lib, nil
		default:
			if el == nil {
				if current == nil {
					return nil, unexpected(rec, offset)
				}
				continue
			}
			if err := el.apply(rec); err != nil {
				return nil, err
			}
		}
	}
}

func unexpected(rec Record, offset int64) error {
	return fmt.Errorf("%w: unexpected %s record at offset %d", ErrFormat, rec.Type, offset)
}

func decodeTimestamp(v []int16) time.Time {
	year := int(v[0])
	if year < 1900 {
		year += 1900
	}
	if v[1] < 1 || v[1] > 12 || v[2] < 1 {
		return time.Time{}
	}
	return time.Date(year, time.Month(v[1]), int(v[2]), int(v[3]), int(v[4]), int(v[5]), 0, time.UTC)
}

// element accumulates the records of one element until ENDEL.
type element struct {
	kind     RecordType
	layer    int16
	datatype int16
	pathType int16
	width    int32
	xy       []Point
	name     string
	text     string
	strans   Strans
	cols     int16
	rows     int16
}

func (e *element) apply(rec Record) error {
	switch rec.Type {
	case RecLayer:
		v, err := singleInt16(rec)
		if err != nil {
			return err
		}
		e.layer = v
	case RecDatatype, RecTextType:
		v, err := singleInt16(rec)
		if err != nil {
			return err
		}
		e.datatype = v
	case RecPathType:
		v, err := singleInt16(rec)
		if err != nil {
			return err
		}
		e.pathType = v
	case RecWidth:
		v, err := rec.Int32s()
		if err != nil {
			return err
		}
		if len(v) != 1 {
			return fmt.Errorf("%w: WIDTH has %d values", ErrFormat, len(v))
		}
		e.width = v[0]
	case RecXY:
		v, err := rec.Int32s()
		if err != nil {
			return err
		}
		if len(v)%2 != 0 {
			return fmt.Errorf("%w: XY has odd coordinate count %d", ErrFormat, len(v))
		}
		e.xy = make([]Point, len(v)/2)
		for i := range e.xy {
			e.xy[i] = Point{X: v[2*i], Y: v[2*i+1]}
		}
	case RecSName:
		e.name = rec.String()
	case RecString:
		e.text = rec.String()
	case RecStrans:
		flags, err := rec.BitArray()
		if err != nil {
			return err
		}
		e.strans.Reflect = flags&stransReflect != 0
		e.strans.AbsMag = flags&stransAbsMag != 0
		e.strans.AbsAngle = flags&stransAbsAngle != 0
	case RecMag:
		v, err := rec.Reals()
		if err != nil {
			return err
		}
		if len(v) == 1 {
			e.strans.Mag = v[0]
		}
	case RecAngle:
		v, err := rec.Reals()
		if err != nil {
			return err
		}
		if len(v) == 1 {
			e.strans.Angle = v[0]
		}
	case RecColRow:
		v, err := rec.Int16s()
		if err != nil {
			return err
		}
		if len(v) != 2 {
			return fmt.Errorf("%w: COLROW has %d values", ErrFormat, len(v))
		}
		e.cols, e.rows = v[0], v[1]
	}
	return nil
}

func (e *element) addTo(s *Structure) error {
	layer := Layer{Number: e.layer, Datatype: e.datatype}
	switch e.kind {
	case RecBoundary:
		if len(e.xy) < 3 {
			return fmt.Errorf("%w: boundary in %q has %d points", ErrFormat, s.Name, len(e.xy))
		}
		s.Boundaries = append(s.Boundaries, Boundary{Layer: layer, XY: e.xy})
	case RecPath:
		if len(e.xy) < 2 {
			return fmt.Errorf("%w: path in %q has %d points", ErrFormat, s.Name, len(e.xy))
		}
		s.Paths = append(s.Paths, Path{Layer: layer, PathType: e.pathType, Width: e.width, XY: e.xy})
	case RecText:
		if len(e.xy) != 1 {
			return fmt.Errorf("%w: text %q in %q has %d points", ErrFormat, e.text, s.Name, len(e.xy))
		}
		s.Texts = append(s.Texts, Text{Layer: layer, Position: e.xy[0], Text: e.text, Strans: e.strans})
	case RecSRef:
		if len(e.xy) != 1 {
			return fmt.Errorf("%w: SREF to %q in %q has %d points", ErrFormat, e.name, s.Name, len(e.xy))
		}
		s.References = append(s.References, Reference{Name: e.name, Strans: e.strans, XY: e.xy})
	case RecARef:
		if len(e.xy) != 3 || e.cols < 1 || e.rows < 1 {
			return fmt.Errorf("%w: AREF to %q in %q has %d points and %dx%d instances", ErrFormat, e.name, s.Name, len(e.xy), e.cols, e.rows)
		}
		s.References = append(s.References, Reference{Name: e.name, Strans: e.strans, Cols: e.cols, Rows: e.rows, XY: e.xy})
	}
	return nil
}

func singleInt16(rec Record) (int16, error) {
	v, err := rec.Int16s()
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: %s has %d values", ErrFormat, rec.Type, len(v))
	}
	return v[0], nil
}
