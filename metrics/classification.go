package metrics

import (
	"sort"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if err := checkPair("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred []float64) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// F1PerClass はyTrueとyPredに現れるクラスごとのF1スコアを計算する。
// クラスは昇順で返される。
//
// 適合率と再現率がともに0のクラスは0とし、UndefinedMetricWarningを発生させる。
func F1PerClass(yTrue, yPred []float64) (classes, scores []float64, err error) {
	if err := checkPair("F1PerClass", yTrue, yPred); err != nil {
		return nil, nil, err
	}

	seen := make(map[float64]struct{})
	for i := range yTrue {
		seen[yTrue[i]] = struct{}{}
		seen[yPred[i]] = struct{}{}
	}
	classes = make([]float64, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Float64s(classes)

	scores = make([]float64, len(classes))
	for k, c := range classes {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yTrue[i] == c && yPred[i] == c:
				tp++
			case yPred[i] == c:
				fp++
			case yTrue[i] == c:
				fn++
			}
		}
		if tp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("F1", "no true positives for a class", 0))
			continue
		}
		// F1 = 2TP / (2TP + FP + FN)
		scores[k] = float64(2*tp) / float64(2*tp+fp+fn)
	}
	return classes, scores, nil
}

// MacroF1 はクラスごとのF1スコアの単純平均を計算する
func MacroF1(yTrue, yPred []float64) (float64, error) {
	_, scores, err := F1PerClass(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), nil
}
