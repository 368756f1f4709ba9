package pdfio

import (
	"bytes"
	"fmt"
	"regexp"
)

var (
	contentsRe  = regexp.MustCompile(`/Contents\s+(?:(\d+)\s+(\d+)\s+R|\[(.*?)\])`)
	resourcesRe = regexp.MustCompile(`/Resources\s*(?:(\d+)\s+(\d+)\s+R|(<<(?:[^<>]|<<[^<>]*>>)*>>))`)
	xobjDictRe  = regexp.MustCompile(`/XObject\s*(?:(\d+)\s+(\d+)\s+R|(<<(?:[^<>]|<<[^<>]*>>)*>>))`)
	xobjEntryRe = regexp.MustCompile(`/([A-Za-z0-9_.+-]+)\s+(\d+)\s+(\d+)\s+R`)
	lengthRe    = regexp.MustCompile(`/Length\s+\d+`)
)

// ExtractContentKeys returns the "id gen" keys of a page's content stream(s),
// in array order when /Contents is an array.
func ExtractContentKeys(pageBody []byte) []string {
	match := contentsRe.FindSubmatch(pageBody)
	if match == nil {
		return nil
	}
	var keys []string
	if len(match[1]) > 0 {
		keys = append(keys, string(match[1])+" "+string(match[2]))
	} else if len(match[3]) > 0 {
		for _, r := range refPairRe.FindAllSubmatch(match[3], -1) {
			keys = append(keys, string(r[1])+" "+string(r[2]))
		}
	}
	return keys
}

// ExtractStreamBody pulls the raw bytes between "stream" and "endstream"
// markers out of an object body (without decompressing).
func ExtractStreamBody(objBody []byte) ([]byte, bool) {
	sm := streamRe.FindSubmatchIndex(objBody)
	if sm == nil {
		return nil, false
	}
	return objBody[sm[2]:sm[3]], true
}

// DecodedPageContent concatenates and inflates all of a page's content
// streams, separated by a newline, matching how PDF viewers treat an array
// of content streams as one logical stream.
func DecodedPageContent(pageBody []byte, objMap ObjectMap) []byte {
	var out bytes.Buffer
	for _, key := range ExtractContentKeys(pageBody) {
		streamObj, ok := objMap[key]
		if !ok {
			continue
		}
		raw, ok := ExtractStreamBody(streamObj)
		if !ok {
			continue
		}
		out.Write(Inflate(raw))
		out.WriteByte('\n')
	}
	return out.Bytes()
}

// ResourcesBody resolves a page's /Resources dictionary body, following an
// indirect reference when present.
func ResourcesBody(pageBody []byte, objMap ObjectMap) []byte {
	m := resourcesRe.FindSubmatch(pageBody)
	if m == nil {
		return nil
	}
	if len(m[1]) > 0 {
		refKey := string(m[1]) + " " + string(m[2])
		return objMap[refKey]
	}
	return m[3]
}

// XObjectRefs returns resource-name -> "id gen" for every entry in a
// /Resources dictionary's /XObject subdictionary, resolving an indirect
// /XObject reference if needed.
func XObjectRefs(resourcesBody []byte, objMap ObjectMap) map[string]string {
	refs := make(map[string]string)
	if resourcesBody == nil {
		return refs
	}
	m := xobjDictRe.FindSubmatch(resourcesBody)
	if m == nil {
		return refs
	}
	var dict []byte
	if len(m[1]) > 0 {
		refKey := string(m[1]) + " " + string(m[2])
		dict = objMap[refKey]
	} else {
		dict = m[3]
	}
	for _, e := range xobjEntryRe.FindAllSubmatch(dict, -1) {
		name := string(e[1])
		refs[name] = string(e[2]) + " " + string(e[3])
	}
	return refs
}

// ReplaceStreamBody re-compresses newDecoded, splices it between this
// object's "stream"/"endstream" markers in place of its old body, and fixes
// up /Length to match.
func ReplaceStreamBody(objBody []byte, newDecoded []byte) []byte {
	sm := streamRe.FindSubmatchIndex(objBody)
	if sm == nil {
		return objBody
	}
	recompressed := Deflate(newDecoded)

	out := make([]byte, 0, len(objBody)+len(recompressed))
	out = append(out, objBody[:sm[2]]...)
	out = append(out, recompressed...)
	out = append(out, objBody[sm[3]:]...)

	if !filterRe.Match(out[:sm[0]]) {
		insertAt := sm[0]
		if i := bytes.LastIndex(out[:sm[0]], []byte(">>")); i >= 0 {
			insertAt = i
		}
		withFilter := make([]byte, 0, len(out)+24)
		withFilter = append(withFilter, out[:insertAt]...)
		withFilter = append(withFilter, []byte(" /Filter /FlateDecode ")...)
		withFilter = append(withFilter, out[insertAt:]...)
		out = withFilter
	}
	out = lengthRe.ReplaceAll(out, []byte(fmt.Sprintf("/Length %d", len(recompressed))))
	return out
}

var filterRe = regexp.MustCompile(`/Filter\b`)
