package rocdate

import (
	"fmt"
	"regexp"
	"time"

	"StockRadar/pkg/apperrs"
)

// 民国年与西元年的固定差值 (民国年+1911=西元年)
const yearOffset = 1911

// 民国日期格式: 三位年 + 两位月 + 两位日, 例如 1140504
var rocPattern = regexp.MustCompile(`^(\d{3})(\d{2})(\d{2})$`)

// Parse 解析民国日期字符串为西元日期
func Parse(roc string) (time.Time, error) {
	m := rocPattern.FindStringSubmatch(roc)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", apperrs.ErrInvalidROCDate, roc)
	}

	var year, month, day int
	fmt.Sscanf(m[1], "%d", &year)
	fmt.Sscanf(m[2], "%d", &month)
	fmt.Sscanf(m[3], "%d", &day)

	d := time.Date(year+yearOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date 会把 2月30日 之类的值归一化, 归一化后不一致即为无效日期
	if d.Year() != year+yearOffset || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", apperrs.ErrInvalidROCDate, roc)
	}

	return d, nil
}

// Format 将西元日期格式化为民国日期字符串
func Format(t time.Time) string {
	return fmt.Sprintf("%03d%02d%02d", t.Year()-yearOffset, int(t.Month()), t.Day())
}

// Validate 校验民国日期字符串格式
func Validate(roc string) error {
	_, err := Parse(roc)
	return err
}

// Today 取得当下的民国日期字符串, 例如 1140630
func Today() string {
	return Format(time.Now())
}

// MonthsFromNow 取得 n 个月后的民国日期字符串
func MonthsFromNow(n int) string {
	return Format(time.Now().AddDate(0, n, 0))
}
