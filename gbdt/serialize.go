package gbdt

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// Binary model layout, all integers little-endian:
//
//	magic       [4]byte "GBDT"
//	version     uint16
//	objective   uint8 length + bytes
//	learnRate   float64
//	numClasses  uint32
//	numFeatures uint32
//	baseScore   float64
//	classes     uint32 count + float64 each
//	trees       uint32 count, then per tree:
//	    class   uint32
//	    nodes   uint32 count, then per node:
//	        type uint8, feature int32, threshold float64,
//	        left int32, right int32, value float64, gain float64, cover float64
//	crc32       uint32 (IEEE) of every preceding byte
//
// Floats are stored as their IEEE-754 bits, so a round trip is exact.
// Class labels are strictly ascending and a model holds at least one tree.
const (
	formatMagic   = "GBDT"
	formatVersion = 1

	nodeSize   = 1 + 4 + 8 + 4 + 4 + 8 + 8 + 8
	headerSize = 4 + 2
	crcSize    = 4
)

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8)    { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16)  { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) i32(v int)     { e.u32(uint32(int32(v))) }
func (e *encoder) f64(v float64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v)) }

func (e *encoder) str(s string) {
	e.u8(uint8(len(s)))
	e.buf = append(e.buf, s...)
}

func encodeEnsemble(ens *Ensemble) []byte {
	size := headerSize + 64 + 8*len(ens.Classes) + crcSize
	for i := range ens.Trees {
		size += 8 + nodeSize*len(ens.Trees[i].Nodes)
	}
	e := &encoder{buf: make([]byte, 0, size)}

	e.buf = append(e.buf, formatMagic...)
	e.u16(formatVersion)
	e.str(ens.Objective)
	e.f64(ens.LearningRate)
	e.u32(uint32(ens.NumClasses))
	e.u32(uint32(ens.NumFeatures))
	e.f64(ens.BaseScore)
	e.u32(uint32(len(ens.Classes)))
	for _, c := range ens.Classes {
		e.f64(c)
	}
	e.u32(uint32(len(ens.Trees)))
	for i := range ens.Trees {
		t := &ens.Trees[i]
		e.u32(uint32(t.Class))
		e.u32(uint32(len(t.Nodes)))
		for _, n := range t.Nodes {
			e.u8(uint8(n.NodeType))
			e.i32(n.SplitFeature)
			e.f64(n.Threshold)
			e.i32(n.LeftChild)
			e.i32(n.RightChild)
			e.f64(n.LeafValue)
			e.f64(n.Gain)
			e.f64(n.Cover)
		}
	}
	e.u32(crc32.ChecksumIEEE(e.buf))
	return e.buf
}

// decoder reads fields sequentially and remembers the first failure.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = errors.NewFormatError(d.off, "truncated input: need %d bytes, have %d", n, len(d.buf)-d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) i32() int { return int(int32(d.u32())) }

func (d *decoder) f64() float64 {
	if b := d.take(8); b != nil {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func (d *decoder) str() string {
	n := int(d.u8())
	return string(d.take(n))
}

// count reads a uint32 element count and rejects counts that cannot fit in
// the remaining input.
func (d *decoder) count(elemSize int) int {
	n := int(d.u32())
	if d.err == nil && n*elemSize > len(d.buf)-d.off {
		d.err = errors.NewFormatError(d.off, "count %d exceeds remaining input", n)
	}
	if d.err != nil {
		return 0
	}
	return n
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = errors.NewFormatError(d.off, format, args...)
	}
}

func decodeEnsemble(data []byte) (*Ensemble, error) {
	if len(data) < headerSize+crcSize {
		return nil, errors.NewFormatError(0, "input too short: %d bytes", len(data))
	}
	if string(data[:4]) != formatMagic {
		return nil, errors.NewFormatError(0, "bad magic %q", data[:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != formatVersion {
		return nil, errors.NewFormatError(4, "unsupported format version %d", v)
	}
	body := data[:len(data)-crcSize]
	stored := binary.LittleEndian.Uint32(data[len(data)-crcSize:])
	if computed := crc32.ChecksumIEEE(body); stored != computed {
		return nil, errors.NewFormatError(len(body), "checksum mismatch: stored %08x, computed %08x", stored, computed)
	}

	d := &decoder{buf: body, off: headerSize}
	ens := &Ensemble{}
	ens.Objective = d.str()
	ens.LearningRate = d.f64()
	ens.NumClasses = int(d.u32())
	ens.NumFeatures = int(d.u32())
	ens.BaseScore = d.f64()
	if nc := d.count(8); nc > 0 {
		ens.Classes = make([]float64, nc)
		for i := range ens.Classes {
			ens.Classes[i] = d.f64()
		}
	}
	if d.err != nil {
		return nil, d.err
	}

	if _, err := NewLoss(ens.Objective); err != nil {
		d.fail("unknown objective %q", ens.Objective)
	}
	switch {
	case ens.NumClasses < 1:
		d.fail("num classes must be positive, got %d", ens.NumClasses)
	case ens.NumFeatures < 1 || ens.NumFeatures > MaxFeatures:
		d.fail("num features %d out of range [1, %d]", ens.NumFeatures, MaxFeatures)
	case ens.Objective == ObjectiveMultiLogLoss && len(ens.Classes) != ens.NumClasses:
		d.fail("%d class labels for %d classes", len(ens.Classes), ens.NumClasses)
	case ens.Objective == ObjectiveSquaredError && (ens.NumClasses != 1 || len(ens.Classes) != 0):
		d.fail("regression model with %d classes", ens.NumClasses)
	case !(ens.LearningRate > 0 && ens.LearningRate <= 1):
		d.fail("learning rate %v out of range", ens.LearningRate)
	case math.IsNaN(ens.BaseScore) || math.IsInf(ens.BaseScore, 0):
		d.fail("non-finite base score")
	}
	for i := 1; i < len(ens.Classes) && d.err == nil; i++ {
		if !(ens.Classes[i-1] < ens.Classes[i]) {
			d.fail("class labels not strictly ascending at index %d", i)
		}
	}

	numTrees := d.count(8)
	if d.err == nil && numTrees == 0 {
		d.fail("model has no trees")
	}
	if d.err == nil && numTrees%ens.NumClasses != 0 {
		d.fail("%d trees is not a multiple of %d classes", numTrees, ens.NumClasses)
	}
	ens.Trees = make([]Tree, 0, numTrees)
	for i := 0; i < numTrees && d.err == nil; i++ {
		t := Tree{Class: int(d.u32())}
		nodes := d.count(nodeSize)
		t.Nodes = make([]Node, nodes)
		for j := range t.Nodes {
			t.Nodes[j] = Node{
				NodeType:     NodeType(d.u8()),
				SplitFeature: d.i32(),
				Threshold:    d.f64(),
				LeftChild:    d.i32(),
				RightChild:   d.i32(),
				LeafValue:    d.f64(),
				Gain:         d.f64(),
				Cover:        d.f64(),
			}
		}
		if d.err != nil {
			break
		}
		if err := t.validate(ens.NumFeatures, ens.NumClasses); err != nil {
			d.fail("tree %d: %v", i, err)
			break
		}
		ens.Trees = append(ens.Trees, t)
	}
	if d.err == nil && d.off != len(body) {
		d.fail("%d trailing bytes", len(body)-d.off)
	}
	if d.err != nil {
		return nil, d.err
	}
	return ens, nil
}

// Serialize encodes the committed ensemble in the binary model format.
func (b *Booster) Serialize() ([]byte, error) {
	ens, err := b.snapshot("Serialize")
	if err != nil {
		return nil, err
	}
	data := encodeEnsemble(ens)
	b.logger.Debug("Model serialized", log.OperationKey, log.OperationSerialize, log.BytesKey, len(data), log.TreesKey, len(ens.Trees))
	return data, nil
}

// Load decodes a model produced by Serialize into a new trained Booster.
// Malformed, truncated or corrupted input fails with an invalid format error.
func Load(data []byte, opts ...Option) (*Booster, error) {
	ens, err := decodeEnsemble(data)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Objective = ens.Objective
	cfg.LearningRate = ens.LearningRate
	b, err := NewBooster(cfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gbdt: load")
	}
	b.ensemble = ens
	b.state.MarkLoaded(ens.NumFeatures)
	b.logger.Debug("Model loaded", log.OperationKey, log.OperationLoad, log.BytesKey, len(data), log.TreesKey, len(ens.Trees))
	return b, nil
}
