package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadHexWords reads 32-bit words written in hex, any number per line.
// A 0x prefix is optional. Text after '#' or "//" is a comment.
func ReadHexWords(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := stripComment(scanner.Text())
		for _, field := range strings.Fields(text) {
			w, err := parseHex32(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return words, nil
}

// ParseOffsets reads an offset descriptor of the form
// "offset: <hex> data_offset: <hex>". The keys may appear in any order and
// on separate lines; a missing key is 0.
func ParseOffsets(r io.Reader) (offset, dataOffset uint32, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read offset descriptor: %w", err)
	}

	var fields []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.ReplaceAll(stripComment(line), ":", ": ")
		fields = append(fields, strings.Fields(line)...)
	}

	seen := make(map[string]bool)
	for i := 0; i < len(fields); i++ {
		key := strings.TrimSuffix(fields[i], ":")
		if key == fields[i] || i+1 >= len(fields) {
			return 0, 0, fmt.Errorf("offset descriptor: expected '<key>: <hex>' at %q", fields[i])
		}
		if seen[key] {
			return 0, 0, fmt.Errorf("offset descriptor: duplicate key %q", key)
		}
		seen[key] = true

		i++
		v, err := parseHex32(fields[i])
		if err != nil {
			return 0, 0, fmt.Errorf("offset descriptor: %s: %w", key, err)
		}

		switch key {
		case "offset":
			offset = v
		case "data_offset":
			dataOffset = v
		default:
			return 0, 0, fmt.Errorf("offset descriptor: unknown key %q", key)
		}
	}

	return offset, dataOffset, nil
}

// LoadHex loads an executable hex image, an optional data hex image and an
// optional offset descriptor. Empty paths are skipped.
func LoadHex(exePath, dataPath, offsetPath string) (*Image, error) {
	img := &Image{}

	if offsetPath != "" {
		f, err := os.Open(offsetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open offset descriptor: %w", err)
		}
		img.Offset, img.DataOffset, err = ParseOffsets(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}

	text, err := readHexFile(exePath)
	if err != nil {
		return nil, err
	}
	img.Text = text
	img.Entry = img.Offset

	if dataPath != "" {
		data, err := readHexFile(dataPath)
		if err != nil {
			return nil, err
		}
		img.Data = data
	}

	if img.Offset&0x3 != 0 || img.DataOffset&0x3 != 0 {
		return nil, fmt.Errorf("image offsets must be word aligned (offset 0x%x, data_offset 0x%x)",
			img.Offset, img.DataOffset)
	}

	return img, nil
}

func readHexFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex image: %w", err)
	}
	defer func() { _ = f.Close() }()

	words, err := ReadHexWords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

func stripComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return s
}

func parseHex32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex word %q", s)
	}
	return uint32(v), nil
}
