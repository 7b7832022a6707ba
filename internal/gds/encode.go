package gds

import (
	"fmt"
	"io"
	"os"
	"time"
)

const streamVersion = 600

// Encode writes lib to w as a GDSII stream.
func Encode(w io.Writer, lib *Library) error {
	if lib.UserUnit == 0 || lib.MeterUnit == 0 {
		return fmt.Errorf("gds: library %q has no units", lib.Name)
	}
	wr := NewWriter(w)
	stamp := encodeTimestamp(lib.Modified)

	wr.Int16s(RecHeader, streamVersion)
	wr.Int16s(RecBgnLib, append(stamp, stamp...)...)
	wr.ASCII(RecLibName, lib.Name)
	wr.Reals(RecUnits, lib.UserUnit, lib.MeterUnit)
	for _, s := range lib.Structures {
		wr.Int16s(RecBgnStr, append(stamp, stamp...)...)
		wr.ASCII(RecStrName, s.Name)
		for _, b := range s.Boundaries {
			wr.Empty(RecBoundary)
			writeLayer(wr, RecDatatype, b.Layer)
			writeXY(wr, b.XY)
			wr.Empty(RecEndEl)
		}
		for _, p := range s.Paths {
			wr.Empty(RecPath)
			writeLayer(wr, RecDatatype, p.Layer)
			if p.PathType != 0 {
				wr.Int16s(RecPathType, p.PathType)
			}
			wr.Int32s(RecWidth, p.Width)
			writeXY(wr, p.XY)
			wr.Empty(RecEndEl)
		}
		for _, t := range s.Texts {
			wr.Empty(RecText)
			writeLayer(wr, RecTextType, t.Layer)
			writeStrans(wr, t.Strans)
			writeXY(wr, []Point{t.Position})
			wr.ASCII(RecString, t.Text)
			wr.Empty(RecEndEl)
		}
		for _, r := range s.References {
			if r.IsArray() {
				wr.Empty(RecARef)
			} else {
				wr.Empty(RecSRef)
			}
			wr.ASCII(RecSName, r.Name)
			writeStrans(wr, r.Strans)
			if r.IsArray() {
				wr.Int16s(RecColRow, r.Cols, r.Rows)
			}
			writeXY(wr, r.XY)
			wr.Empty(RecEndEl)
		}
		wr.Empty(RecEndStr)
	}
	wr.Empty(RecEndLib)
	return wr.Flush()
}

// WriteFile encodes lib into the file at path, replacing it.
func WriteFile(path string, lib *Library) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create GDS file: %w", err)
	}
	if err := Encode(f, lib); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeLayer(wr *Writer, second RecordType, l Layer) {
	wr.Int16s(RecLayer, l.Number)
	wr.Int16s(second, l.Datatype)
}

func writeXY(wr *Writer, pts []Point) {
	coords := make([]int32, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, p.X, p.Y)
	}
	wr.Int32s(RecXY, coords...)
}

func writeStrans(wr *Writer, s Strans) {
	if s.isIdentity() {
		return
	}
	var flags uint16
	if s.Reflect {
		flags |= stransReflect
	}
	if s.AbsMag {
		flags |= stransAbsMag
	}
	if s.AbsAngle {
		flags |= stransAbsAngle
	}
	wr.BitArray(RecStrans, flags)
	if m := s.Magnification(); m != 1 {
		wr.Reals(RecMag, m)
	}
	if s.Angle != 0 {
		wr.Reals(RecAngle, s.Angle)
	}
}

func encodeTimestamp(t time.Time) []int16 {
	if t.IsZero() {
		return make([]int16, 6)
	}
	t = t.UTC()
	return []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
}
