package pdfio

import (
	"fmt"
	"regexp"
	"strings"
)

// ObjectMap maps "id gen" keys (e.g. "12 0") to the raw dictionary/stream
// body between "obj" and "endobj".
type ObjectMap map[string][]byte

var (
	objRe       = regexp.MustCompile(`(?s)(\d+)\s+(\d+)\s+obj(.*?)endobj`)
	objStmFirst = regexp.MustCompile(`/First\s+(\d+)`)
	streamRe    = regexp.MustCompile(`(?s)stream\s*\r?\n(.*?)\r?\nendstream`)
)

// BuildObjectMap scans the raw PDF bytes for every "n g obj ... endobj" and
// expands /ObjStm compressed object streams so later lookups (page tree,
// content streams, XObject dicts) see a flat key space. Returns
// ErrSourceCorrupt if not a single object could be located.
func BuildObjectMap(pdfBytes []byte) (ObjectMap, error) {
	objMap := make(ObjectMap)
	matches := objRe.FindAllSubmatch(pdfBytes, -1)
	if len(matches) == 0 {
		return nil, ErrSourceCorrupt
	}
	for _, m := range matches {
		key := string(m[1]) + " " + string(m[2])
		body := m[3]

		if bytesIndex(body, []byte("/ObjStm")) >= 0 {
			expandObjStm(body, objMap)
		}
		objMap[key] = body
	}
	return objMap, nil
}

// expandObjStm decodes a compressed object stream and inserts each embedded
// object under its own "id 0" key so downstream code never needs to know it
// came from an /ObjStm.
func expandObjStm(body []byte, objMap ObjectMap) {
	sm := streamRe.FindSubmatch(body)
	if sm == nil {
		return
	}
	dec := Inflate(sm[1])
	if dec == nil || len(dec) == 0 {
		return
	}
	first := 0
	if fm := objStmFirst.FindSubmatch(body); fm != nil {
		fmt.Sscanf(string(fm[1]), "%d", &first)
	}
	if first <= 0 || first >= len(dec) {
		return
	}
	header := strings.TrimSpace(string(dec[:first]))
	parts := strings.Fields(header)
	content := dec[first:]
	for i := 0; i+1 < len(parts); i += 2 {
		var objNum, off int
		if _, err := fmt.Sscanf(parts[i], "%d", &objNum); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(parts[i+1], "%d", &off); err != nil {
			continue
		}
		end := len(content)
		for j := i + 2; j+1 < len(parts); j += 2 {
			var nextOff int
			if _, err := fmt.Sscanf(parts[j+1], "%d", &nextOff); err == nil {
				end = nextOff
				break
			}
		}
		if off < 0 || off >= len(content) || end <= off || end > len(content) {
			continue
		}
		objMap[fmt.Sprintf("%d 0", objNum)] = content[off:end]
	}
}

// ParseObjKey splits an "id gen" key into its integer parts.
func ParseObjKey(key string) (id, gen int, ok bool) {
	if _, err := fmt.Sscanf(key, "%d %d", &id, &gen); err != nil {
		return 0, 0, false
	}
	return id, gen, true
}
