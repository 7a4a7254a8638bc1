package ocr

import "math"

// PageStats summarizes recognition confidence for one page, in percent.
type PageStats struct {
	MeanConf  float64 `json:"mean_conf"`
	StdevConf float64 `json:"stdev_conf"`
}

// DocumentStats is the per-page and overall confidence summary written to
// ocr_stats.json in debug mode.
type DocumentStats struct {
	Pages            []PageStats `json:"pages"`
	OverallMeanConf  float64     `json:"overall_mean_conf"`
	OverallStdevConf float64     `json:"overall_stdev_conf"`
}

// Stats computes confidence statistics over the result's line scores.
func (r *Result) Stats() DocumentStats {
	var stats DocumentStats
	var allScores []float64

	for _, page := range r.Pages {
		var scores []float64
		for _, ln := range page.Lines {
			scores = append(scores, ln.Score)
		}
		allScores = append(allScores, scores...)
		stats.Pages = append(stats.Pages, PageStats{
			MeanConf:  round2(mean(scores) * 100),
			StdevConf: round2(stdev(scores) * 100),
		})
	}

	stats.OverallMeanConf = round2(mean(allScores) * 100)
	stats.OverallStdevConf = round2(stdev(allScores) * 100)
	return stats
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation; fewer than two samples yield 0.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
