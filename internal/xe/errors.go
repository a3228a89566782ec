package xe

import (
	"errors"

	"github.com/dushixiang/magicbutton/internal/dataset"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/go-orz/orz"
)

var (
	ErrInvalidParams    = orz.NewError(10400, "参数无效")
	ErrUnauthorized     = orz.NewError(10401, "未授权")
	ErrStrategyNotFound = orz.NewError(10404, "策略不存在")
	ErrDatasetMissing   = orz.NewError(10410, "策略目录缺少数据文件")
	ErrDatasetAmbiguous = orz.NewError(10411, "策略目录存在多个同类数据文件")
	ErrMisaligned       = orz.NewError(10412, "持仓与行情时间戳不一致")
	ErrInsufficientData = orz.NewError(10413, "数据点不足")
	ErrSessionNotFound  = orz.NewError(10420, "会话不存在或已过期")
	ErrUnknownEvent     = orz.NewError(10421, "不支持的事件")
	ErrAnalysisDisabled = orz.NewError(10430, "未启用AI分析")
)

// From 将领域错误映射为业务错误码，无法识别时原样返回
func From(err error) error {
	if err == nil {
		return nil
	}
	var oe *orz.Error
	if errors.As(err, &oe) {
		return err
	}
	switch {
	case errors.Is(err, dataset.ErrStrategyNotFound):
		return ErrStrategyNotFound
	case errors.Is(err, dataset.ErrMissingDataset):
		return orz.NewError(ErrDatasetMissing.Code, "策略目录缺少数据文件: "+err.Error())
	case errors.Is(err, dataset.ErrAmbiguousDataset):
		return orz.NewError(ErrDatasetAmbiguous.Code, "策略目录存在多个同类数据文件: "+err.Error())
	case errors.Is(err, frame.ErrMisaligned):
		return ErrMisaligned
	case errors.Is(err, portfolio.ErrInsufficientData):
		return ErrInsufficientData
	}
	return err
}
