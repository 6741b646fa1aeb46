package metadata

// SourceResult is one adapter's answer to one query. It exists only during
// aggregation and is never persisted.
type SourceResult struct {
	Source      string
	Confidence  float64
	Fields      Record
	ArtworkURLs []string
}

// Seed builds the initial output record from the top-ranked result,
// recording provenance for every populated field.
func Seed(res SourceResult) Record {
	out := Record{}
	return out.Merge(res)
}

// Merge folds one source result into the record and returns the merged copy;
// the receiver is never mutated. Field rules: an empty field takes the
// incoming value; string fields keep the longer non-empty value; sequence
// fields union in first-seen order; numeric fields keep the existing value.
// Provenance records the source whose value ultimately won each field.
func (r Record) Merge(res SourceResult) Record {
	out := r.Clone()
	in := res.Fields

	mergeString := func(field string, dst *string, incoming string) {
		if incoming == "" {
			return
		}
		if *dst == "" || len(incoming) > len(*dst) {
			*dst = incoming
			out.setProvenance(field, res.Source)
		}
	}

	mergeString(FieldTitle, &out.Title, in.Title)
	mergeString(FieldArtist, &out.Artist, in.Artist)
	mergeString(FieldAlbum, &out.Album, in.Album)
	mergeString(FieldGenre, &out.Genre, in.Genre)
	mergeString(FieldDirector, &out.Director, in.Director)
	mergeString(FieldDescription, &out.Description, in.Description)
	mergeString(FieldRating, &out.Rating, in.Rating)
	mergeString(FieldQuality, &out.Quality, in.Quality)

	if out.Track <= 0 && in.Track > 0 {
		out.Track = in.Track
		out.setProvenance(FieldTrack, res.Source)
	}
	if out.Year <= 0 && in.Year > 0 {
		out.Year = in.Year
		out.setProvenance(FieldYear, res.Source)
	}

	if merged, changed := unionStrings(out.Cast, in.Cast, 0); changed {
		out.Cast = merged
		out.setProvenance(FieldCast, res.Source)
	}

	if merged, _ := unionStrings(out.ArtworkURLs, res.ArtworkURLs, MaxArtworkURLs); len(merged) != len(out.ArtworkURLs) {
		out.ArtworkURLs = merged
	}

	return out
}

// unionStrings appends src values absent from dst, preserving first-seen
// order. A positive limit caps the result length. The boolean reports
// whether anything was appended.
func unionStrings(dst, src []string, limit int) ([]string, bool) {
	if len(src) == 0 {
		return dst, false
	}
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	out := append([]string(nil), dst...)
	changed := false
	for _, v := range src {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		seen[v] = struct{}{}
		out = append(out, v)
		changed = true
	}
	return out, changed
}
