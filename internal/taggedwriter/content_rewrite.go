package taggedwriter

import (
	"fmt"
	"regexp"

	"github.com/inklutec/accesspdf/internal/pdfio"
)

var doRe = regexp.MustCompile(`/([A-Za-z0-9_.+-]+)\s+Do\b`)

// orderedDoNames returns the XObject resource names invoked by Do operators
// in a decoded content stream, in first-appearance order, deduplicated.
func orderedDoNames(content []byte) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range doRe.FindAllSubmatch(content, -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// rewritePageContent wraps each figure's Do invocation in a /Figure BDC/EMC
// marked-content sequence. It walks the page's content stream object(s) in
// order, consuming each figure from the first stream whose text contains a
// matching "q ... /Name Do Q" block.
func rewritePageContent(objMap pdfio.ObjectMap, pageBody []byte, figures []figure) {
	keys := pdfio.ExtractContentKeys(pageBody)
	remaining := append([]figure(nil), figures...)

	for _, key := range keys {
		if len(remaining) == 0 {
			break
		}
		streamObj, ok := objMap[key]
		if !ok {
			continue
		}
		raw, ok := pdfio.ExtractStreamBody(streamObj)
		if !ok {
			continue
		}
		decoded := pdfio.Inflate(raw)

		var stillRemaining []figure
		changed := false
		for _, f := range remaining {
			wrapped, ok := wrapFirstDoInvocation(decoded, f.name, f.mcid)
			if ok {
				decoded = wrapped
				changed = true
			} else {
				stillRemaining = append(stillRemaining, f)
			}
		}
		remaining = stillRemaining

		if changed {
			objMap[key] = pdfio.ReplaceStreamBody(streamObj, decoded)
		}
	}
}

// wrapFirstDoInvocation finds the first "q <ops> /name Do Q" block invoking
// the named XObject and wraps it in a marked-content sequence carrying mcid.
func wrapFirstDoInvocation(content []byte, name string, mcid int) ([]byte, bool) {
	pattern := regexp.MustCompile(`q\s[^Q]*?/` + regexp.QuoteMeta(name) + `\s+Do\s*Q`)
	loc := pattern.FindIndex(content)
	if loc == nil {
		return content, false
	}
	if alreadyWrapped(content, loc[0]) {
		return content, false
	}
	original := content[loc[0]:loc[1]]

	wrapped := make([]byte, 0, len(original)+32)
	wrapped = append(wrapped, []byte(fmt.Sprintf("/Figure <</MCID %d>> BDC\n", mcid))...)
	wrapped = append(wrapped, original...)
	wrapped = append(wrapped, []byte("\nEMC")...)

	out := make([]byte, 0, len(content)+len(wrapped)-len(original))
	out = append(out, content[:loc[0]]...)
	out = append(out, wrapped...)
	out = append(out, content[loc[1]:]...)
	return out, true
}

// alreadyWrapped reports whether the bytes immediately preceding pos already
// carry a /Figure ... BDC marker, so a re-export doesn't nest a second one.
func alreadyWrapped(content []byte, pos int) bool {
	lookback := 64
	start := pos - lookback
	if start < 0 {
		start = 0
	}
	return bdcLookbackRe.Match(content[start:pos])
}

var bdcLookbackRe = regexp.MustCompile(`/Figure\s*<<[^>]*>>\s*BDC\s*$`)
