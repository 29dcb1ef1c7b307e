package pdf

import (
	"bufio"
	"bytes"
	"sort"
	"strings"
)

// toUnicodeMap maps raw character codes onto Unicode strings, built
// from a font's /ToUnicode CMap stream.
type toUnicodeMap struct {
	entries map[string]string
	lengths []int // code lengths, longest first
}

// parseToUnicode reads the bfchar/bfrange sections of a ToUnicode CMap.
func parseToUnicode(data []byte) *toUnicodeMap {
	m := &toUnicodeMap{entries: make(map[string]string)}
	lengthSet := make(map[int]struct{})
	sc := bufio.NewScanner(bytes.NewReader(data))
	state := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		switch {
		case strings.HasSuffix(line, "begincodespacerange"):
			state = "codespace"
			continue
		case strings.HasSuffix(line, "beginbfchar"):
			state = "bfchar"
			continue
		case strings.HasSuffix(line, "beginbfrange"):
			state = "bfrange"
			continue
		case strings.HasPrefix(line, "end"):
			state = ""
			continue
		}
		switch state {
		case "codespace":
			if hexes := hexTokens(line); len(hexes) >= 1 {
				if b := hexBytes(hexes[0]); len(b) > 0 {
					lengthSet[len(b)] = struct{}{}
				}
			}
		case "bfchar":
			hexes := hexTokens(line)
			if len(hexes) >= 2 {
				src := hexBytes(hexes[0])
				if len(src) > 0 {
					m.entries[string(src)] = decodeUTF16BE(hexBytes(hexes[1]))
					lengthSet[len(src)] = struct{}{}
				}
			}
		case "bfrange":
			line = gatherRange(line, sc)
			hexes := hexTokens(line)
			if len(hexes) < 3 {
				continue
			}
			srcStart := hexBytes(hexes[0])
			srcEnd := hexBytes(hexes[1])
			width := len(srcStart)
			lengthSet[width] = struct{}{}
			startVal := bytesToInt(srcStart)
			endVal := bytesToInt(srcEnd)
			if strings.Contains(line, "[") {
				for i := 0; i <= endVal-startVal && 2+i < len(hexes); i++ {
					src := intToBytes(startVal+i, width)
					m.entries[string(src)] = decodeUTF16BE(hexBytes(hexes[2+i]))
				}
			} else {
				dst := hexBytes(hexes[2])
				dstVal := bytesToInt(dst)
				for i := 0; i <= endVal-startVal; i++ {
					src := intToBytes(startVal+i, width)
					m.entries[string(src)] = decodeUTF16BE(intToBytes(dstVal+i, len(dst)))
				}
			}
		}
	}
	if len(lengthSet) == 0 {
		for k := range m.entries {
			lengthSet[len(k)] = struct{}{}
		}
	}
	for l := range lengthSet {
		m.lengths = append(m.lengths, l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(m.lengths)))
	return m
}

// gatherRange pulls in continuation lines of a bfrange array form.
func gatherRange(line string, sc *bufio.Scanner) string {
	if !strings.Contains(line, "[") || strings.Contains(line, "]") {
		return line
	}
	for sc.Scan() {
		next := strings.TrimSpace(sc.Text())
		line += " " + next
		if strings.Contains(next, "]") {
			break
		}
	}
	return line
}

func hexTokens(line string) []string {
	var tokens []string
	for {
		start := strings.IndexByte(line, '<')
		if start == -1 {
			break
		}
		end := strings.IndexByte(line[start+1:], '>')
		if end == -1 {
			break
		}
		tokens = append(tokens, strings.ReplaceAll(line[start+1:start+1+end], " ", ""))
		line = line[start+1+end+1:]
	}
	return tokens
}

func hexBytes(hex string) []byte {
	if len(hex)%2 == 1 {
		hex += "0"
	}
	out := make([]byte, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		out[i/2] = fromHex(hex[i])<<4 | fromHex(hex[i+1])
	}
	return out
}

func bytesToInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func intToBytes(v, width int) []byte {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// decode maps raw string bytes through the CMap, longest codes first,
// falling back to the raw byte for unmapped codes.
func (m *toUnicodeMap) decode(data []byte) string {
	if m == nil || len(m.lengths) == 0 {
		return filterControl(data)
	}
	var sb strings.Builder
	for len(data) > 0 {
		matched := false
		for _, l := range m.lengths {
			if len(data) < l {
				continue
			}
			if val, ok := m.entries[string(data[:l])]; ok {
				sb.WriteString(val)
				data = data[l:]
				matched = true
				break
			}
		}
		if !matched {
			if data[0] >= 0x20 {
				sb.WriteByte(data[0])
			}
			data = data[1:]
		}
	}
	return sb.String()
}
