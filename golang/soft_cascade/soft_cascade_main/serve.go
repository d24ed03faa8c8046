package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tarstars/soft_cascade/golang/soft_cascade/scl"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

type scoreRequest struct {
	Features [][]float64 `json:"features" binding:"required,min=1"`
	Partial  bool        `json:"partial"`
}

type scoreResponse struct {
	Scores        []float64   `json:"scores"`
	PartialScores [][]float64 `json:"partial_scores,omitempty"`
}

//newRouter exposes the cascade over HTTP. Every feature vector of a request is one sample.
func newRouter(clf *scl.Cascade, threadsNum int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/model", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"trees":       len(clf.Trees),
			"feature_dim": clf.FeatureDim(),
			"mode":        clf.Mode.String(),
		})
	})

	r.POST("/score", func(c *gin.Context) {
		var req scoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		featureDim := len(req.Features[0])
		if featureDim == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty feature vector"})
			return
		}
		features := mat.NewDense(featureDim, len(req.Features), nil)
		for i, x := range req.Features {
			if len(x) != featureDim {
				c.JSON(http.StatusBadRequest, gin.H{"error": "feature vectors differ in length"})
				return
			}
			features.SetCol(i, x)
		}

		resp := scoreResponse{Scores: make([]float64, len(req.Features))}
		if err := clf.ApplyThreads(features, resp.Scores, threadsNum); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Partial {
			for _, x := range req.Features {
				partial, err := clf.PartialScores(x)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				resp.PartialScores = append(resp.PartialScores, partial)
			}
		}
		c.JSON(http.StatusOK, resp)
	})
	return r
}

func serve(srcConfig string) {
	var serveConfig ServeConfig
	scl.HandleError(decodeConfig(srcConfig, &serveConfig))
	if serveConfig.Address == "" {
		serveConfig.Address = ":8080"
	}

	clf, err := loadCascade(serveConfig.ModelFileName)
	scl.HandleError(err)

	scl.Logger().Info("serving", zap.String("address", serveConfig.Address), zap.Int("trees", len(clf.Trees)))
	scl.HandleError(newRouter(clf, serveConfig.ThreadsNum).Run(serveConfig.Address))
}
