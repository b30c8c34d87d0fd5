package match

import (
	"strings"
	"testing"

	"github.com/desertthunder/amx/internal/models"
)

func track(catalogID, title string, disc, number, duration int, isrc string) models.Track {
	return models.Track{
		CatalogID:   catalogID,
		Title:       title,
		ArtistName:  "Artist",
		DiscNumber:  disc,
		TrackNumber: number,
		Duration:    duration,
		ISRC:        isrc,
	}
}

func entry(libraryID string, t models.Track) models.LibraryEntry {
	return models.LibraryEntry{LibraryID: libraryID, Track: t}
}

func TestMatchTiers(t *testing.T) {
	t.Run("external identifier beats conflicting metadata", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Completely Different Name", 1, 1, 100, "ISRC1")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 5, 300, "ISRC1"),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() {
			t.Fatalf("expected match, got reason %s", r.Reason)
		}
		if r.Tier != TierExternalID {
			t.Errorf("tier = %s, want %s", r.Tier, TierExternalID)
		}
		if r.Track.CatalogID != "200" {
			t.Errorf("matched track = %s, want 200", r.Track.CatalogID)
		}
	})

	t.Run("exact title and duration", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 3, 190, ""),
			track("201", "Song B", 1, 4, 190, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() || r.Tier != TierTitleDuration {
			t.Fatalf("expected title+duration match, got tier %s reason %s", r.Tier, r.Reason)
		}
		if r.Track.CatalogID != "200" {
			t.Errorf("matched track = %s, want 200", r.Track.CatalogID)
		}
	})

	t.Run("both durations unknown still match exactly", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 0, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 0, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() || r.Tier != TierTitleDuration {
			t.Fatalf("expected title+duration match, got tier %s reason %s", r.Tier, r.Reason)
		}
	})

	t.Run("one known duration cannot use the tolerance tier", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 0, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 190, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if r.Matched() {
			t.Fatal("unknown source duration should not match a known destination duration")
		}
		if r.Reason != ReasonNoCandidate {
			t.Errorf("reason = %s, want %s", r.Reason, ReasonNoCandidate)
		}
	})

	t.Run("tolerance boundary is inclusive at two seconds", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 192, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() || r.Tier != TierTitleTolerance {
			t.Fatalf("two second gap should match at the tolerance tier, got tier %s reason %s", r.Tier, r.Reason)
		}
	})

	t.Run("three seconds is past the tolerance", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 193, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if r.Matched() {
			t.Fatal("three second gap should not match")
		}
		if r.Reason != ReasonNoCandidate {
			t.Errorf("reason = %s, want %s", r.Reason, ReasonNoCandidate)
		}
		if !strings.Contains(r.Hint, "Song A") {
			t.Errorf("expected a nearest-title hint naming Song A, got %q", r.Hint)
		}
	})
}

func TestMatchAmbiguity(t *testing.T) {
	t.Run("identical candidates are rejected not guessed", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Bonus Track", 1, 1, 200, "")),
		}
		pool := []models.Track{
			track("200", "Bonus Track", 1, 8, 200, ""),
			track("201", "Bonus Track", 1, 9, 200, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if r.Matched() {
			t.Fatal("tied candidates must not produce a match")
		}
		if r.Reason != ReasonAmbiguous {
			t.Errorf("reason = %s, want %s", r.Reason, ReasonAmbiguous)
		}
	})

	t.Run("annotations break ties between candidates", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 200, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 8, 200, ""),
			track("201", "Song A (Remix)", 1, 9, 200, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() {
			t.Fatalf("annotation sets should disambiguate, got reason %s", r.Reason)
		}
		if r.Track.CatalogID != "200" {
			t.Errorf("matched track = %s, want the unannotated 200", r.Track.CatalogID)
		}
	})

	t.Run("lone renamed candidate still matches", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 200, "")),
		}
		pool := []models.Track{
			track("200", "Song A (Remastered)", 1, 1, 200, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if !r.Matched() || r.Tier != TierTitleDuration {
			t.Fatalf("remaster rename should match when it is the only candidate, got tier %s reason %s", r.Tier, r.Reason)
		}
	})

	t.Run("ambiguity does not fall through to lower tiers", func(t *testing.T) {
		// Two exact-duration candidates tie at the exact tier. A third track
		// within tolerance must not rescue the entry afterwards.
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 200, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 7, 200, ""),
			track("201", "Song A", 1, 8, 200, ""),
			track("202", "Song A", 1, 9, 201, ""),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if r.Matched() {
			t.Fatal("entry must stay unmatched after an ambiguous tier")
		}
		if r.Reason != ReasonAmbiguous {
			t.Errorf("reason = %s, want %s", r.Reason, ReasonAmbiguous)
		}
	})
}

func TestMatchExternalIDCorruption(t *testing.T) {
	t.Run("identifier shared by destination tracks", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "ISRC1")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 190, "ISRC1"),
			track("201", "Song A (Mix)", 1, 2, 250, "ISRC1"),
		}

		out := Match(entries, pool)

		r := out.Results[0]
		if r.Matched() {
			t.Fatal("a shared destination identifier must not be trusted")
		}
		if r.Reason != ReasonAmbiguous {
			t.Errorf("reason = %s, want %s", r.Reason, ReasonAmbiguous)
		}
	})

	t.Run("identifier claimed by differing source entries", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "ISRC1")),
			entry("i.2", track("101", "Song B", 1, 2, 250, "ISRC1")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 190, "ISRC1"),
		}

		out := Match(entries, pool)

		for _, r := range out.Results {
			if r.Matched() {
				t.Errorf("entry %s matched despite corrupt identifier", r.Entry.LibraryID)
			}
			if r.Reason != ReasonAmbiguous {
				t.Errorf("entry %s reason = %s, want %s", r.Entry.LibraryID, r.Reason, ReasonAmbiguous)
			}
		}
	})
}

func TestMatchDuplicates(t *testing.T) {
	t.Run("identical entries collapse to one match", func(t *testing.T) {
		song := track("100", "Song A", 1, 1, 190, "")
		entries := []models.LibraryEntry{
			entry("i.2", song),
			entry("i.1", song),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 190, ""),
		}

		out := Match(entries, pool)

		if len(out.Results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(out.Results))
		}

		// Stable order puts i.1 first, so it is the surviving copy.
		first, second := out.Results[0], out.Results[1]
		if first.Entry.LibraryID != "i.1" {
			t.Fatalf("stable order should put i.1 first, got %s", first.Entry.LibraryID)
		}
		if !first.Matched() {
			t.Errorf("primary copy should match, got reason %s", first.Reason)
		}
		if second.Reason != ReasonDuplicateSource {
			t.Errorf("second copy reason = %s, want %s", second.Reason, ReasonDuplicateSource)
		}
		if second.Primary != "i.1" {
			t.Errorf("duplicate primary = %s, want i.1", second.Primary)
		}
		if second.Matched() {
			t.Error("duplicate copies must not consume destination tracks")
		}
	})

	t.Run("near copies with differing positions are not duplicates", func(t *testing.T) {
		entries := []models.LibraryEntry{
			entry("i.1", track("100", "Song A", 1, 1, 190, "")),
			entry("i.2", track("100", "Song A", 1, 2, 190, "")),
		}
		pool := []models.Track{
			track("200", "Song A", 1, 1, 190, ""),
		}

		out := Match(entries, pool)

		var dups int
		for _, r := range out.Results {
			if r.Reason == ReasonDuplicateSource {
				dups++
			}
		}
		if dups != 0 {
			t.Errorf("position-differing entries flagged as duplicates: %d", dups)
		}
	})
}

func TestMatchDeterminismAndInjectivity(t *testing.T) {
	entries := []models.LibraryEntry{
		entry("i.3", track("102", "Song C", 1, 3, 210, "")),
		entry("i.1", track("100", "Song A", 1, 1, 190, "")),
		entry("i.2", track("101", "Song B", 1, 2, 200, "")),
	}
	pool := []models.Track{
		track("202", "Song C", 2, 1, 210, ""),
		track("200", "Song A", 1, 1, 190, ""),
		track("201", "Song B", 1, 2, 200, ""),
	}

	first := Match(entries, pool)

	// Same inputs in a different order must produce the same correspondence.
	reversed := []models.LibraryEntry{entries[2], entries[0], entries[1]}
	second := Match(reversed, pool)

	if len(first.Results) != len(second.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(first.Results), len(second.Results))
	}

	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		if a.Entry.LibraryID != b.Entry.LibraryID {
			t.Errorf("result %d entry order differs: %s vs %s", i, a.Entry.LibraryID, b.Entry.LibraryID)
		}
		if a.Matched() != b.Matched() {
			t.Errorf("result %d match state differs", i)
			continue
		}
		if a.Matched() && a.Track.CatalogID != b.Track.CatalogID {
			t.Errorf("result %d matched different tracks: %s vs %s", i, a.Track.CatalogID, b.Track.CatalogID)
		}
	}

	seen := make(map[string]string)
	for _, r := range first.Results {
		if !r.Matched() {
			continue
		}
		if prev, ok := seen[r.Track.CatalogID]; ok {
			t.Errorf("destination %s claimed by both %s and %s", r.Track.CatalogID, prev, r.Entry.LibraryID)
		}
		seen[r.Track.CatalogID] = r.Entry.LibraryID
	}
}

func TestMatchUnmatchedDestinations(t *testing.T) {
	entries := []models.LibraryEntry{
		entry("i.1", track("100", "Song A", 1, 1, 190, "")),
	}
	inLibrary := track("202", "Song C", 1, 3, 230, "")
	inLibrary.LibraryID = "i.9"
	pool := []models.Track{
		track("200", "Song A", 1, 1, 190, ""),
		track("201", "Song B", 1, 2, 220, ""),
		inLibrary,
	}

	out := Match(entries, pool)

	if len(out.UnmatchedTracks) != 1 {
		t.Fatalf("expected 1 unmatched destination, got %d", len(out.UnmatchedTracks))
	}
	if out.UnmatchedTracks[0].CatalogID != "201" {
		t.Errorf("unmatched destination = %s, want 201", out.UnmatchedTracks[0].CatalogID)
	}
}

func TestMatchEmptyTitles(t *testing.T) {
	entries := []models.LibraryEntry{
		entry("i.1", track("100", "", 1, 1, 190, "")),
	}
	pool := []models.Track{
		track("200", "", 1, 1, 190, ""),
	}

	out := Match(entries, pool)

	r := out.Results[0]
	if r.Matched() {
		t.Fatal("empty titles must never match on the title axis")
	}
	if r.Reason != ReasonNoCandidate {
		t.Errorf("reason = %s, want %s", r.Reason, ReasonNoCandidate)
	}
}

func TestMatchExampleScenario(t *testing.T) {
	entries := []models.LibraryEntry{
		entry("i.1", track("100", "Intro", 1, 1, 45, "")),
		entry("i.2", track("101", "Song A", 1, 2, 190, "")),
	}
	pool := []models.Track{
		track("200", "Intro", 1, 1, 45, ""),
		track("201", "Song A", 1, 3, 191, ""),
		track("202", "Song A (Remix)", 1, 9, 220, ""),
	}

	out := Match(entries, pool)

	intro := out.Results[0]
	if !intro.Matched() || intro.Tier != TierTitleDuration {
		t.Errorf("Intro should match exactly, got tier %s reason %s", intro.Tier, intro.Reason)
	}
	if intro.Matched() && intro.Track.CatalogID != "200" {
		t.Errorf("Intro matched %s, want 200", intro.Track.CatalogID)
	}

	songA := out.Results[1]
	if !songA.Matched() || songA.Tier != TierTitleTolerance {
		t.Errorf("Song A should match within tolerance, got tier %s reason %s", songA.Tier, songA.Reason)
	}
	if songA.Matched() && songA.Track.CatalogID != "201" {
		t.Errorf("Song A matched %s, want 201 not the remix", songA.Track.CatalogID)
	}

	if len(out.UnmatchedTracks) != 1 || out.UnmatchedTracks[0].CatalogID != "202" {
		t.Errorf("the remix should be the only unmatched destination, got %v", out.UnmatchedTracks)
	}
}
