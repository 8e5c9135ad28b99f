package synth_test

import (
	"reflect"
	"testing"
	"time"

	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/synth"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// ─── Pinned corpora ───────────────────────────────────────────────────────────

func TestSynthesize_PinnedCorpus(t *testing.T) {
	reviews := synth.Synthesize("B08N5WRWNW", now)
	if len(reviews) != 64 {
		t.Fatalf("expected 64 reviews, got %d", len(reviews))
	}

	want := []domain.Review{
		{ID: "review_0", Rating: 4, Text: "Perfect! Amazing! Wonderful!", Author: "Mike J.", Date: "2026-08-05", IsFake: true, Confidence: 0.9125218667854369},
		{ID: "review_1", Rating: 4, Text: "Perfect! Amazing! Wonderful!", Author: "Lisa S.", Date: "2026-04-11", IsFake: true, Confidence: 0.9216264582286384},
		{ID: "review_2", Rating: 5, Text: "Outstanding product! Highly recommended!", Author: "Jane D.", Date: "2026-02-10", IsFake: true, Confidence: 0.8139627869111791},
	}
	for i, w := range want {
		if reviews[i] != w {
			t.Errorf("review %d:\n got  %+v\n want %+v", i, reviews[i], w)
		}
	}

	last := domain.Review{ID: "review_63", Rating: 5, Text: "Amazing product! Exceeded my expectations.", Author: "Emma T.", Date: "2025-12-23", IsFake: false, Confidence: 0.005299979924893705}
	if reviews[63] != last {
		t.Errorf("last review:\n got  %+v\n want %+v", reviews[63], last)
	}

	var fakes int
	for _, r := range reviews {
		if r.IsFake {
			fakes++
		}
	}
	if fakes != 12 {
		t.Errorf("expected 12 fake-labelled reviews, got %d", fakes)
	}
}

func TestSynthesize_OtherPinnedHeads(t *testing.T) {
	cases := []struct {
		id    string
		count int
		head  domain.Review
	}{
		{"MOBFKD123456", 61, domain.Review{ID: "review_0", Rating: 5, Text: "Good value for money. Works as expected.", Author: "Lisa T.", IsFake: false, Confidence: 0.1700986156143358}},
		{"abc123", 82, domain.Review{ID: "review_0", Rating: 3, Text: "Disappointed with this purchase.", Author: "Emma J.", IsFake: false, Confidence: 0.15236718297292098}},
		{"B08HEADSET", 79, domain.Review{ID: "review_0", Rating: 3, Text: "Disappointed with this purchase.", Author: "John S.", IsFake: false, Confidence: 0.08965402036957357}},
	}
	for _, c := range cases {
		reviews := synth.Synthesize(c.id, now)
		if len(reviews) != c.count {
			t.Errorf("%s: expected %d reviews, got %d", c.id, c.count, len(reviews))
			continue
		}
		got := reviews[0]
		got.Date = ""
		if got != c.head {
			t.Errorf("%s: head\n got  %+v\n want %+v", c.id, got, c.head)
		}
	}
}

// The empty id hashes to seed 0, whose stream is all zeros.
func TestSynthesize_ZeroSeedCorpus(t *testing.T) {
	reviews := synth.Synthesize("", now)
	if len(reviews) != synth.MinReviews {
		t.Fatalf("expected %d reviews, got %d", synth.MinReviews, len(reviews))
	}
	for _, r := range reviews {
		if !r.IsFake || r.Rating != 4 || r.Confidence != 0.7 || r.Author != "John S." || r.Date != "2026-10-19" {
			t.Fatalf("unexpected review %+v", r)
		}
		if r.Text != "Amazing! Best product ever! 5 stars!" {
			t.Fatalf("unexpected text %q", r.Text)
		}
	}
}

// ─── Properties ───────────────────────────────────────────────────────────────

func TestSynthesize_Deterministic(t *testing.T) {
	a := synth.Synthesize("B0DM5RD6M6", now)
	b := synth.Synthesize("B0DM5RD6M6", now)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same id produced different corpora")
	}
}

func TestSynthesize_OnlyDatesDependOnClock(t *testing.T) {
	a := synth.Synthesize("B09DZH4C71", now)
	b := synth.Synthesize("B09DZH4C71", now.AddDate(0, 0, 3))
	if len(a) != len(b) {
		t.Fatalf("length changed with the clock: %d vs %d", len(a), len(b))
	}
	for i := range a {
		da, _ := time.Parse(synth.DateLayout, a[i].Date)
		db, _ := time.Parse(synth.DateLayout, b[i].Date)
		if db.Sub(da) != 72*time.Hour {
			t.Errorf("review %d: dates %s and %s are not 3 days apart", i, a[i].Date, b[i].Date)
		}
		a[i].Date, b[i].Date = "", ""
		if a[i] != b[i] {
			t.Errorf("review %d changed with the clock: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSynthesize_Bounds(t *testing.T) {
	ids := []string{"B08N5WRWNW", "B07FZ8S74R", "B09DZH4C71", "B0FKTDXKXV", "B0DZX4PYLV",
		"B0DM5RD6M6", "B085NNH52P", "B08HEADSET", "MOBFKD123456", "abc123", "x", "zz-top"}
	oldest := now.AddDate(0, 0, -364).Format(synth.DateLayout)
	today := now.Format(synth.DateLayout)

	for _, id := range ids {
		reviews := synth.Synthesize(id, now)
		if n := len(reviews); n < 20 || n > 99 {
			t.Errorf("%s: count %d outside [20,99]", id, n)
		}
		for _, r := range reviews {
			if r.Rating < 1 || r.Rating > 5 {
				t.Errorf("%s/%s: rating %d", id, r.ID, r.Rating)
			}
			if r.IsFake && (r.Rating < 4 || r.Confidence < 0.7 || r.Confidence >= 1) {
				t.Errorf("%s/%s: fake review out of shape: %+v", id, r.ID, r)
			}
			if !r.IsFake && (r.Confidence < 0 || r.Confidence >= 0.3) {
				t.Errorf("%s/%s: genuine confidence %v", id, r.ID, r.Confidence)
			}
			if r.Date < oldest || r.Date > today {
				t.Errorf("%s/%s: date %s outside window", id, r.ID, r.Date)
			}
		}
	}
}
