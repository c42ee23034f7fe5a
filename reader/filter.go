package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the stream's filter chain and returns the plain data.
func decodeStream(s Stream) ([]byte, error) {
	data := s.Raw

	var filters []Name
	switch f := s.Dict["Filter"].(type) {
	case nil:
		return data, nil
	case Name:
		filters = []Name{f}
	case []any:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array holds %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: unexpected /Filter type %T", f)
	}

	var err error
	for _, f := range filters {
		switch f {
		case "FlateDecode":
			data, err = flateDecode(data)
		case "ASCIIHexDecode":
			data, err = asciiHexDecode(data)
		case "ASCII85Decode":
			data, err = ascii85Decode(data)
		default:
			return nil, fmt.Errorf("reader: unsupported filter /%s", f)
		}
		if err != nil {
			return nil, fmt.Errorf("reader: filter /%s: %w", f, err)
		}
	}

	if params, ok := s.Dict["DecodeParms"].(Dict); ok {
		if pred := dictInt(params, "Predictor"); pred >= 10 {
			data, err = unpredictPNG(data, int(dictInt(params, "Columns")), int(dictInt(params, "Colors")), int(dictInt(params, "BitsPerComponent")))
			if err != nil {
				return nil, fmt.Errorf("reader: predictor: %w", err)
			}
		}
	}
	return data, nil
}

func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var clean bytes.Buffer
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isSpace(b) {
			clean.WriteByte(b)
		}
	}
	src := clean.Bytes()
	if len(src)%2 != 0 {
		src = append(src, '0')
	}
	dst := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, ascii85.NewDecoder(bytes.NewReader(data))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unpredictPNG reverses PNG row prediction, the scheme cross-reference
// streams almost always use.
func unpredictPNG(data []byte, columns, colors, bpc int) ([]byte, error) {
	if columns <= 0 {
		columns = 1
	}
	if colors <= 0 {
		colors = 1
	}
	if bpc <= 0 {
		bpc = 8
	}
	rowLen := (columns*colors*bpc + 7) / 8
	stride := rowLen + 1
	if stride <= 1 || len(data)%stride != 0 {
		return nil, fmt.Errorf("row length %d does not divide data of %d bytes", stride, len(data))
	}

	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	for pos := 0; pos < len(data); pos += stride {
		tag := data[pos]
		row := make([]byte, rowLen)
		copy(row, data[pos+1:pos+stride])
		bpp := (colors*bpc + 7) / 8

		switch tag {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				row[i] += row[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bpp {
					left = int(row[i-bpp])
				}
				row[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				left, upLeft := 0, 0
				if i >= bpp {
					left = int(row[i-bpp])
					upLeft = int(prev[i-bpp])
				}
				row[i] += paeth(left, int(prev[i]), upLeft)
			}
		default:
			return nil, fmt.Errorf("unknown predictor tag %d", tag)
		}

		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
