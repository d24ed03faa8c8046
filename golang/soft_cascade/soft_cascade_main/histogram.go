package main

import (
	"github.com/tarstars/soft_cascade/golang/soft_cascade/scl"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func scoreFile(clf *scl.Cascade, fileName string, threadsNum int) ([]float64, error) {
	features, err := scl.ReadNpy(fileName)
	if err != nil {
		return nil, err
	}
	_, n := features.Dims()
	scores := make([]float64, n)
	if err = clf.ApplyThreads(features, scores, threadsNum); err != nil {
		return nil, err
	}
	return scores, nil
}

//plotScoreHistogram draws normalized score distributions of negatives and positives.
func plotScoreHistogram(path string, negScores, posScores []float64, nBins int) error {
	p := plot.New()
	p.Title.Text = "Cascade scores"
	p.X.Label.Text = "score"
	p.Y.Label.Text = "density"

	for i, class := range []struct {
		name   string
		scores []float64
	}{
		{"negatives", negScores},
		{"positives", posScores},
	} {
		hist, err := plotter.NewHist(plotter.Values(class.scores), nBins)
		if err != nil {
			return err
		}
		hist.Normalize(1)
		hist.FillColor = plotutil.Color(i)
		p.Add(hist)
		p.Legend.Add(class.name, hist)
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func histogram(srcConfig string) {
	var histogramConfig HistogramConfig
	scl.HandleError(decodeConfig(srcConfig, &histogramConfig))
	if histogramConfig.NBins <= 0 {
		histogramConfig.NBins = 50
	}

	clf, err := loadCascade(histogramConfig.ModelFileName)
	scl.HandleError(err)
	negScores, err := scoreFile(clf, histogramConfig.FileNameNegatives, histogramConfig.ThreadsNum)
	scl.HandleError(err)
	posScores, err := scoreFile(clf, histogramConfig.FileNamePositives, histogramConfig.ThreadsNum)
	scl.HandleError(err)

	scl.HandleError(plotScoreHistogram(histogramConfig.PlotFileName, negScores, posScores, histogramConfig.NBins))
	scl.Logger().Info("histogram saved", zap.String("file", histogramConfig.PlotFileName))
}
