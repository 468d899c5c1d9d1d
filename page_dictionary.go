package strata

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DictionaryPageScheduler composes an indices strategy with an items strategy
// holding the distinct values. When the requested type is itself a dictionary
// type the two halves are surfaced as an arrow dictionary array; otherwise
// the indices are resolved against the items and the column materializes as
// plain values.
type DictionaryPageScheduler struct {
	indices    PageScheduler
	items      PageScheduler
	numItems   uint32
	decodeDict bool
	dtype      arrow.DataType
}

func newDictionaryPageScheduler(indices, items PageScheduler, numItems uint32, decodeDict bool, dtype arrow.DataType) *DictionaryPageScheduler {
	return &DictionaryPageScheduler{
		indices:    indices,
		items:      items,
		numItems:   numItems,
		decodeDict: decodeDict,
		dtype:      dtype,
	}
}

func (s *DictionaryPageScheduler) NumDictionaryItems() uint32 { return s.numItems }

func (s *DictionaryPageScheduler) Schedule(rows RowRange, plan *ReadPlan) (PageDecoder, error) {
	indicesDec, err := s.indices.Schedule(rows, plan)
	if err != nil {
		return nil, err
	}
	// The whole dictionary is fetched even for a narrow row range; items
	// referenced by the requested rows are not known until decode.
	itemsDec, err := s.items.Schedule(RowRange{Begin: 0, End: uint64(s.numItems)}, plan)
	if err != nil {
		return nil, err
	}
	return &dictionaryPageDecoder{scheduler: s, indices: indicesDec, items: itemsDec}, nil
}

type dictionaryPageDecoder struct {
	scheduler *DictionaryPageScheduler
	indices   PageDecoder
	items     PageDecoder
}

func (d *dictionaryPageDecoder) ScheduleMore(fetched *FetchResult, plan *ReadPlan) (bool, error) {
	moreIndices, err := d.indices.ScheduleMore(fetched, plan)
	if err != nil {
		return false, err
	}
	moreItems, err := d.items.ScheduleMore(fetched, plan)
	if err != nil {
		return false, err
	}
	return moreIndices || moreItems, nil
}

func (d *dictionaryPageDecoder) Decode(fetched *FetchResult, mem memory.Allocator) (arrow.Array, error) {
	s := d.scheduler
	indicesArr, err := d.indices.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	itemsArr, err := d.items.Decode(fetched, mem)
	if err != nil {
		return nil, err
	}
	if itemsArr.Len() != int(s.numItems) {
		return nil, fmt.Errorf("%w: dictionary decoded %d items, descriptor says %d",
			ErrCorrupted, itemsArr.Len(), s.numItems)
	}
	if s.decodeDict {
		return d.materialize(indicesArr, itemsArr)
	}

	dictType, ok := s.dtype.(*arrow.DictionaryType)
	if !ok {
		dictType = &arrow.DictionaryType{IndexType: indicesArr.DataType(), ValueType: itemsArr.DataType()}
	}
	if !arrow.TypeEqual(dictType.ValueType, itemsArr.DataType()) {
		return nil, fmt.Errorf("%w: dictionary items decoded as %s, column wants %s",
			ErrCorrupted, itemsArr.DataType(), dictType.ValueType)
	}
	castIndices, err := castIndexArray(indicesArr, dictType.IndexType)
	if err != nil {
		return nil, err
	}
	return array.NewDictionaryArray(dictType, castIndices, itemsArr), nil
}

// materialize resolves every index against the items array, producing a plain
// column. A row is null when its index or the referenced item is null.
func (d *dictionaryPageDecoder) materialize(indicesArr, itemsArr arrow.Array) (arrow.Array, error) {
	s := d.scheduler
	idx, err := uintValues(indicesArr)
	if err != nil {
		return nil, err
	}
	n := len(idx)

	validity := newFilledBitmap(n)
	nulls := 0
	setNull := func(i int) {
		bitutil.ClearBit(validity, i)
		nulls++
	}

	switch items := itemsArr.(type) {
	case *array.Binary, *array.LargeBinary, *array.String, *array.LargeString:
		ends := make([]uint64, n)
		var data []byte
		for i, j := range idx {
			switch {
			case indicesArr.IsNull(i):
				setNull(i)
			case j >= uint64(s.numItems):
				return nil, fmt.Errorf("%w: dictionary index %d out of range at row %d",
					ErrCorrupted, j, i)
			case itemsArr.IsNull(int(j)):
				setNull(i)
			default:
				data = append(data, varBinaryValue(itemsArr, int(j))...)
			}
			ends[i] = uint64(len(data))
		}
		if nulls == 0 {
			validity = nil
		}
		return newVarBinaryArray(binaryOutputType(s.dtype), ends, data, validity, nulls), nil

	default:
		fixed, ok := itemsArr.DataType().(arrow.FixedWidthDataType)
		if !ok || fixed.BitWidth()%8 != 0 {
			return nil, fmt.Errorf("%w: cannot materialize dictionary of %s", ErrTypeMismatch, itemsArr.DataType())
		}
		w := fixed.BitWidth() / 8
		raw := fixedWidthBytes(items, w)
		out := make([]byte, n*w)
		for i, j := range idx {
			switch {
			case indicesArr.IsNull(i):
				setNull(i)
			case j >= uint64(s.numItems):
				return nil, fmt.Errorf("%w: dictionary index %d out of range at row %d",
					ErrCorrupted, j, i)
			case itemsArr.IsNull(int(j)):
				setNull(i)
			default:
				copy(out[i*w:], raw[int(j)*w:(int(j)+1)*w])
			}
		}
		arr := newFixedWidthArray(itemsArr.DataType(), n, out)
		if nulls == 0 {
			return arr, nil
		}
		return withValidity(arr, validity, nulls), nil
	}
}

// castIndexArray widens or narrows decoded indices to the dictionary's index
// type. Decoded indices already fit the stored width, so a narrowing cast can
// only overflow on corrupt data, which the range check in materialize would
// also reject.
func castIndexArray(arr arrow.Array, to arrow.DataType) (arrow.Array, error) {
	if arrow.TypeEqual(arr.DataType(), to) {
		return arr, nil
	}
	fixed, ok := to.(arrow.FixedWidthDataType)
	if !ok || fixed.BitWidth()%8 != 0 {
		return nil, fmt.Errorf("%w: dictionary index type %s", ErrTypeMismatch, to)
	}
	vals, err := uintValues(arr)
	if err != nil {
		return nil, err
	}
	out := newFixedWidthArray(to, len(vals), packUints(vals, uint64(fixed.BitWidth()/8)))
	if nulls := arr.NullN(); nulls > 0 {
		return withValidity(out, arr.NullBitmapBytes(), nulls), nil
	}
	return out, nil
}
