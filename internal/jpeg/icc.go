package jpeg

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
)

const (
	iccSignature = "ICC_PROFILE\x00"
	// signature, sequence number, chunk total
	iccPrefixLen = len(iccSignature) + 2
	iccChunkMax  = 0xffff - 2 - iccPrefixLen
)

// ExtractICC joins the ICC chunks found in a list of APP2 payloads.
// Non-ICC payloads are skipped. A JPEG with no chunks yields nil, nil.
func ExtractICC(markers [][]byte) ([]byte, error) {
	var slots [][]byte
	found := 0
	for _, m := range markers {
		if len(m) < iccPrefixLen || !bytes.HasPrefix(m, []byte(iccSignature)) {
			continue
		}
		seq, total := int(m[iccPrefixLen-2]), int(m[iccPrefixLen-1])
		if seq < 1 || seq > total {
			return nil, fmt.Errorf("ICC chunk %d of %d out of range", seq, total)
		}
		switch {
		case slots == nil:
			slots = make([][]byte, total)
		case len(slots) != total:
			return nil, fmt.Errorf("ICC chunk total changed from %d to %d", len(slots), total)
		}
		if slots[seq-1] != nil {
			return nil, fmt.Errorf("ICC chunk %d repeated", seq)
		}
		slots[seq-1] = m[iccPrefixLen:]
		found++
	}
	if slots == nil {
		return nil, nil
	}
	if found != len(slots) {
		return nil, fmt.Errorf("ICC profile incomplete: %d of %d chunks", found, len(slots))
	}
	return bytes.Join(slots, nil), nil
}

// ChunkICC splits profile into APP2 payloads small enough for one marker
// each.
func ChunkICC(profile []byte) ([][]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("ICC profile is empty")
	}
	total := (len(profile) + iccChunkMax - 1) / iccChunkMax
	if total > 0xff {
		return nil, fmt.Errorf("ICC profile of %d bytes needs %d APP2 markers, limit is 255", len(profile), total)
	}

	out := make([][]byte, 0, total)
	for part := range slices.Chunk(profile, iccChunkMax) {
		payload := make([]byte, 0, iccPrefixLen+len(part))
		payload = append(payload, iccSignature...)
		payload = append(payload, byte(len(out)+1), byte(total))
		out = append(out, append(payload, part...))
	}
	return out, nil
}
