package platform

import (
	"sort"

	"stream-resolver-go/pkg/types"
)

// SelectBestFormat picks the single best candidate. Tie-break policy:
// an adaptive manifest (HLS/DASH) beats any progressive format; among
// progressive formats, ones carrying both audio and video beat partial
// tracks; remaining candidates sort by descending height. maxHeight, when
// positive, caps the height of progressive candidates but never disqualifies
// all of them.
func SelectBestFormat(formats []types.Format, maxHeight int) (types.Format, bool) {
	if len(formats) == 0 {
		return types.Format{}, false
	}

	for _, f := range formats {
		if f.IsManifest() {
			return f, true
		}
	}

	candidates := make([]types.Format, len(formats))
	copy(candidates, formats)

	if maxHeight > 0 {
		within := filterFormats(candidates, func(f types.Format) bool {
			return f.Height <= maxHeight
		})
		if len(within) > 0 {
			candidates = within
		}
	}

	complete := filterFormats(candidates, func(f types.Format) bool {
		return f.HasAudio() && f.HasVideo()
	})
	if len(complete) > 0 {
		candidates = complete
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})
	return candidates[0], true
}

func filterFormats(formats []types.Format, keep func(types.Format) bool) []types.Format {
	var out []types.Format
	for _, f := range formats {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// hintForFormat derives the container hint from the selected format.
func hintForFormat(f types.Format) types.ContainerHint {
	if f.Ext == "mpd" {
		return types.ContainerDASH
	}
	if f.IsManifest() {
		return types.ContainerHLS
	}
	return types.ContainerProgressiveHTTP
}
