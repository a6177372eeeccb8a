package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Trainer は学習可能なモデルのインターフェース
type Trainer interface {
	// Train はモデルを訓練データで学習させる。ctx がキャンセルされると中断する
	Train(ctx context.Context, X mat.Matrix, y []float64) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は各行の予測値（回帰値またはクラスラベル）を返す
	Predict(X mat.Matrix) ([]float64, error)
}

// ProbabilisticPredictor はクラス確率を返せる分類モデルのインターフェース
type ProbabilisticPredictor interface {
	Predictor
	// PredictProba は rows x classes の確率行列を返す
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Serializable はバイト列に保存できるモデルのインターフェース
type Serializable interface {
	Serialize() ([]byte, error)
}

// Disposable は明示的に資源を解放するモデルのインターフェース
type Disposable interface {
	Dispose()
}
