package reader

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry locates one object. For compressed entries the offset holds the
// containing object stream's number and gen the index inside it.
type xrefEntry struct {
	offset     int64
	gen        int
	inUse      bool
	compressed bool
}

type xrefTable map[int]xrefEntry

// maxXrefChain bounds /Prev recursion so a cyclic trailer cannot loop forever.
const maxXrefChain = 64

// findStartXref locates the offset recorded after the final "startxref".
func findStartXref(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	lex := newLexer(tail[idx+len("startxref"):])
	tok := lex.token()
	off, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset %q", tok)
	}
	return off, nil
}

// parseXref parses the cross-reference section at offset, following /Prev
// links. Entries from newer sections win over older ones.
func parseXref(data []byte, offset int64, depth int) (xrefTable, Dict, error) {
	if depth > maxXrefChain {
		return nil, nil, fmt.Errorf("xref chain too deep")
	}
	if offset < 0 || int(offset) >= len(data) {
		return nil, nil, fmt.Errorf("xref offset %d out of bounds", offset)
	}

	lex := newLexer(data[offset:])
	save := lex.pos
	if tok := lex.token(); tok != "xref" {
		// PDF 1.5+ cross-reference stream.
		lex.pos = save
		return parseXrefStream(data, offset, depth)
	}

	table := make(xrefTable)
	for {
		lex.skipSpace()
		save = lex.pos
		tok := lex.token()
		if tok == "trailer" {
			break
		}
		lex.pos = save

		start, err := lex.int()
		if err != nil {
			return nil, nil, fmt.Errorf("xref subsection start: %w", err)
		}
		count, err := lex.int()
		if err != nil {
			return nil, nil, fmt.Errorf("xref subsection count: %w", err)
		}

		for i := int64(0); i < count; i++ {
			off, err := lex.int()
			if err != nil {
				return nil, nil, fmt.Errorf("xref entry offset: %w", err)
			}
			gen, err := lex.int()
			if err != nil {
				return nil, nil, fmt.Errorf("xref entry generation: %w", err)
			}
			kind := lex.token()

			num := int(start + i)
			if _, seen := table[num]; !seen {
				table[num] = xrefEntry{offset: off, gen: int(gen), inUse: kind == "n"}
			}
		}
	}

	obj, err := lex.object()
	if err != nil {
		return nil, nil, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is not a dictionary")
	}

	mergePrev(data, table, trailer, depth)
	return table, trailer, nil
}

// parseXrefStream parses a cross-reference stream object at offset.
func parseXrefStream(data []byte, offset int64, depth int) (xrefTable, Dict, error) {
	lex := newLexer(data[offset:])
	obj, err := lex.indirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream: %w", err)
	}
	stm, ok := obj.(Stream)
	if !ok {
		return nil, nil, fmt.Errorf("xref section is neither table nor stream")
	}
	decoded, err := decodeStream(stm)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding xref stream: %w", err)
	}

	wArr, ok := stm.Dict["W"].([]any)
	if !ok || len(wArr) != 3 {
		return nil, nil, fmt.Errorf("xref stream /W must be a 3-element array")
	}
	var w [3]int
	for i, v := range wArr {
		n, ok := v.(int64)
		if !ok {
			return nil, nil, fmt.Errorf("xref stream /W element %d not an integer", i)
		}
		w[i] = int(n)
	}
	entrySize := w[0] + w[1] + w[2]
	if entrySize <= 0 {
		return nil, nil, fmt.Errorf("xref stream has empty entries")
	}

	var index []int64
	if arr, ok := stm.Dict["Index"].([]any); ok {
		for _, v := range arr {
			if n, ok := v.(int64); ok {
				index = append(index, n)
			}
		}
	} else {
		index = []int64{0, dictInt(stm.Dict, "Size")}
	}

	table := make(xrefTable)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := int64(0); j < count; j++ {
			if pos+entrySize > len(decoded) {
				break
			}
			var f [3]int64
			for k := 0; k < 3; k++ {
				for b := 0; b < w[k]; b++ {
					f[k] = f[k]<<8 | int64(decoded[pos])
					pos++
				}
			}
			kind := f[0]
			if w[0] == 0 {
				kind = 1
			}

			num := int(start + j)
			if _, seen := table[num]; seen {
				continue
			}
			switch kind {
			case 1:
				table[num] = xrefEntry{offset: f[1], gen: int(f[2]), inUse: true}
			case 2:
				table[num] = xrefEntry{offset: f[1], gen: int(f[2]), inUse: true, compressed: true}
			}
		}
	}

	mergePrev(data, table, stm.Dict, depth)
	return table, stm.Dict, nil
}

// mergePrev folds in entries from the previous xref section, if any.
// Current entries take precedence; errors in older sections are ignored.
func mergePrev(data []byte, table xrefTable, trailer Dict, depth int) {
	prev := dictInt(trailer, "Prev")
	if prev == 0 {
		return
	}
	prevTable, _, err := parseXref(data, prev, depth+1)
	if err != nil {
		return
	}
	for num, entry := range prevTable {
		if _, seen := table[num]; !seen {
			table[num] = entry
		}
	}
}
