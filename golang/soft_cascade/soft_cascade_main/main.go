package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/sbinet/npyio"
	"github.com/tarstars/soft_cascade/golang/soft_cascade/scl"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func train(srcConfig string) {
	var trainConfig TrainConfig
	scl.HandleError(decodeConfig(srcConfig, &trainConfig))
	mode, err := scl.ParseScoreMode(trainConfig.Mode)
	scl.HandleError(err)
	scl.HandleError(trainConfig.Tree.Validate())

	set, err := scl.ReadSampleSet(trainConfig.FileNameNegatives, trainConfig.FileNamePositives, trainConfig.Tree.NBins)
	scl.HandleError(err)
	set.SetDescription(trainConfig.Description)
	if trainConfig.FileNameNegWeights != "" {
		set.NegWeights, err = scl.ReadWeights(trainConfig.FileNameNegWeights)
		scl.HandleError(err)
	}
	if trainConfig.FileNamePosWeights != "" {
		set.PosWeights, err = scl.ReadWeights(trainConfig.FileNamePosWeights)
		scl.HandleError(err)
	}

	clf := &scl.Cascade{Mode: mode}
	for stage, params := range stageParams(trainConfig.Tree, trainConfig.NWeaks) {
		nWeaks := trainConfig.NWeaks[stage]
		scl.Logger().Info("stage", zap.Int("stage", stage+1), zap.Int("n_weaks", nWeaks))
		stageCascade, err := scl.TrainStage(set, nWeaks, params)
		scl.HandleError(err)
		clf.Combine(stageCascade)
	}

	scl.HandleError(clf.SaveModel(trainConfig.FileNameModel))
	scl.Logger().Info("model saved", zap.String("file", trainConfig.FileNameModel), zap.Int("trees", len(clf.Trees)))
}

//stageParams gives every stage its own seed range: tree t of stage s is grown with the seed
//Seed + (trees of the earlier stages) + t.
func stageParams(tree scl.TreeParams, nWeaks []int) []scl.TreeParams {
	params := make([]scl.TreeParams, len(nWeaks))
	offset := int64(0)
	for stage, n := range nWeaks {
		params[stage] = tree
		params[stage].Seed += offset
		offset += int64(n)
	}
	return params
}

func predict(srcConfig string) {
	var predictConfig PredictConfig
	scl.HandleError(decodeConfig(srcConfig, &predictConfig))

	features, err := scl.ReadNpy(predictConfig.FeaturesFileName)
	scl.HandleError(err)
	clf, err := loadCascade(predictConfig.ModelFileName)
	scl.HandleError(err)

	_, n := features.Dims()
	scores := make([]float64, n)
	scl.HandleError(clf.ApplyThreads(features, scores, predictConfig.ThreadsNum))

	scl.HandleError(writeNpy(predictConfig.PredictionFileName, scores))
}

//lcurve writes the error rate at zero threshold after every stage of the cascade.
func lcurve(srcConfig string) {
	var lcurveConfig LcurveConfig
	scl.HandleError(decodeConfig(srcConfig, &lcurveConfig))

	clf, err := loadCascade(lcurveConfig.ModelFileName)
	scl.HandleError(err)

	learningCurve := make([]float64, len(clf.Trees))
	total := 0
	for _, sample := range []struct {
		fileName string
		sign     float64
	}{
		{lcurveConfig.FileNameNegatives, -1},
		{lcurveConfig.FileNamePositives, 1},
	} {
		features, err := scl.ReadNpy(sample.fileName)
		scl.HandleError(err)
		featureDim, n := features.Dims()
		x := make([]float64, featureDim)
		for i := 0; i < n; i++ {
			mat.Col(x, i, features)
			partial, err := clf.PartialScores(x)
			scl.HandleError(err)
			for stage, score := range partial {
				if score*sample.sign <= 0 {
					learningCurve[stage]++
				}
			}
		}
		total += n
	}
	for stage := range learningCurve {
		learningCurve[stage] /= float64(total)
	}

	scl.HandleError(writeNpy(lcurveConfig.LearningCurveFileName, learningCurve))
}

func graph(srcConfig string) {
	var graphConfig GraphConfig
	scl.HandleError(decodeConfig(srcConfig, &graphConfig))

	clf, err := loadCascade(graphConfig.ModelFileName)
	scl.HandleError(err)
	scl.HandleError(clf.RenderTrees(graphConfig.DumpPrefix, graphConfig.FigureType, graphConfig.PicturesDirectory))
}

func export(srcConfig string) {
	var exportConfig ExportConfig
	scl.HandleError(decodeConfig(srcConfig, &exportConfig))

	clf, err := loadCascade(exportConfig.ModelFileName)
	scl.HandleError(err)
	scl.HandleError(clf.SaveNpy(exportConfig.Directory))
}

func writeNpy(fileName string, value interface{}) error {
	dst, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err = npyio.Write(dst, value); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func main() {
	runMode := flag.String("mode", "train", "you can select 'train', 'predict', 'lcurve', 'graph', 'export', 'histogram' or 'serve' modes")
	config := flag.String("config", "cascade_config.json", "a config file for the run of the program, JSON or YAML")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")
	debug := flag.Bool("debug", false, "trace node decisions of the tree growth")

	flag.Parse()

	logger, err := scl.NewProductionLogger(os.Getenv("LOG_FILE"), *debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	scl.SetLogger(logger)

	runner, ok := map[string]func(string){
		"train":     train,
		"predict":   predict,
		"lcurve":    lcurve,
		"graph":     graph,
		"export":    export,
		"histogram": histogram,
		"serve":     serve,
	}[*runMode]
	if !ok {
		logger.Fatal("unknown mode", zap.String("mode", *runMode))
	}
	runner(*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		scl.HandleError(err)
		defer func() { scl.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Fatal("could not write memory profile", zap.Error(err))
		}
	}
}
