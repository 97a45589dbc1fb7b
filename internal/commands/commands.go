package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stock-alert-bot/internal/alert"
	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"

	log "github.com/sirupsen/logrus"
)

// Store is the slice of the alert store the interpreter needs.
type Store interface {
	UpsertAlert(a types.Alert) (bool, error)
	ListAlerts() ([]types.Alert, error)
	DeleteByTicker(ticker string) (int64, error)
	MarkNotified(id int64) error
}

// Resolver resolves the current price of a ticker.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (float64, error)
}

// Notifier pushes a one-way message to the fixed recipient.
type Notifier interface {
	Push(text string) error
}

// Handler interprets one inbound chat message and produces the reply text.
// It keeps no state of its own.
type Handler struct {
	store    Store
	resolver Resolver
	notifier Notifier
}

func NewHandler(store Store, resolver Resolver, notifier Notifier) *Handler {
	return &Handler{store: store, resolver: resolver, notifier: notifier}
}

// Handle dispatches a message to one of: list, delete, register, help.
func (h *Handler) Handle(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	log.Debugf("received message: %s", text)

	switch text {
	case "列表", "查詢", "list":
		return h.handleList()
	}

	if strings.HasPrefix(text, "刪除") {
		if ticker := strings.TrimSpace(strings.TrimPrefix(text, "刪除")); ticker != "" {
			return h.handleDelete(ticker)
		}
	}

	if parts := strings.Fields(text); len(parts) == 3 {
		return h.handleRegister(ctx, parts[0], parts[1], parts[2])
	}

	return translation.Translate("請輸入格式：\n股票代號 低於/高於 目標價格\n例如：2330 低於 500\n\n其他指令：\n📋 列表 → 查看提醒清單\n🗑️ 刪除 2330 → 移除提醒")
}

func (h *Handler) handleList() string {
	alerts, err := h.store.ListAlerts()
	if err != nil {
		log.Errorf("❌ Failed to fetch alerts: %v", err)
		return translation.Translate("⚠️ 暫時無法存取提醒資料，請稍後再試")
	}

	if len(alerts) == 0 {
		return translation.Translate("📭 目前沒有任何股票提醒")
	}

	var list strings.Builder
	list.WriteString(translation.Translate("📋 提醒清單："))
	for _, a := range alerts {
		status := translation.Translate("⏳ 未通知")
		if a.Notified {
			status = translation.Translate("✅ 已通知")
		}
		list.WriteString(fmt.Sprintf("\n%s %s %s | 現價 %s | %s",
			a.Ticker, a.Operator.Label(), helpers.FormatPrice(a.TargetPrice),
			helpers.FormatNullablePrice(a.CurrentPrice), status))
	}
	return list.String()
}

func (h *Handler) handleDelete(ticker string) string {
	count, err := h.store.DeleteByTicker(ticker)
	if err != nil {
		log.Errorf("❌ Failed to delete alerts for %s: %v", ticker, err)
		return translation.Translate("⚠️ 暫時無法存取提醒資料，請稍後再試")
	}
	if count == 0 {
		return fmt.Sprintf(translation.Translate("⚠️ 找不到 %s 的提醒"), ticker)
	}
	return fmt.Sprintf(translation.Translate("🗑️ 已刪除 %d 筆 %s 的提醒"), count, ticker)
}

func (h *Handler) handleRegister(ctx context.Context, ticker, operatorToken, targetToken string) string {
	operator, ok := parseOperator(operatorToken)
	if !ok {
		return translation.Translate("⚠️ 請輸入 低於/高於 或 < / >")
	}

	target, err := strconv.ParseFloat(targetToken, 64)
	if err != nil {
		return translation.Translate("⚠️ 目標價格必須是數字")
	}

	var current *float64
	if price, err := h.resolver.Resolve(ctx, ticker); err != nil {
		log.Warnf("⚠️ Could not resolve price for %s: %v", ticker, err)
	} else {
		current = &price
	}

	updated, err := h.store.UpsertAlert(types.Alert{
		Ticker:       ticker,
		Operator:     operator,
		TargetPrice:  target,
		CurrentPrice: current,
	})
	if err != nil {
		log.Errorf("❌ Failed to save alert for %s: %v", ticker, err)
		return translation.Translate("⚠️ 暫時無法存取提醒資料，請稍後再試")
	}

	log.Infof("✅ alert registered: %s %s %s, current %s",
		ticker, operator, helpers.FormatPrice(target), helpers.FormatNullablePrice(current))

	if updated {
		h.push(fmt.Sprintf(translation.Translate("⚠️ 股票 %s 的提醒條件已更新為 %s %s (現價: %s)"),
			ticker, operator.Label(), helpers.FormatPrice(target), helpers.FormatNullablePrice(current)))
	}

	// Conditions that already hold fire now instead of waiting out a full
	// poll interval.
	if alert.Evaluate(current, operator, target) {
		h.push(fmt.Sprintf(translation.Translate("📢 %s 已立即達到條件 %s %s！\n現價: %s"),
			ticker, operator.Label(), helpers.FormatPrice(target), helpers.FormatPrice(*current)))
		h.markNotified(ticker, operator, target)
	}

	return fmt.Sprintf(translation.Translate("✅ 已設定股票 %s\n條件: %s %s\n現價: %s"),
		ticker, operator.Label(), helpers.FormatPrice(target), helpers.FormatNullablePrice(current))
}

// push is best-effort: a lost notification is logged and forgotten.
func (h *Handler) push(text string) {
	if err := h.notifier.Push(text); err != nil {
		log.Errorf("❌ Failed to push notification: %v", err)
	}
}

func (h *Handler) markNotified(ticker string, operator types.Operator, target float64) {
	alerts, err := h.store.ListAlerts()
	if err != nil {
		log.Errorf("❌ Failed to fetch alerts for mark-notified: %v", err)
		return
	}
	for _, a := range alerts {
		if a.Ticker == ticker && a.Operator == operator && a.TargetPrice == target {
			if err := h.store.MarkNotified(a.ID); err != nil {
				log.Errorf("❌ Failed to mark %s as notified: %v", ticker, err)
			}
			return
		}
	}
}

func parseOperator(token string) (types.Operator, bool) {
	switch token {
	case "低於", "小於", "<":
		return types.LessThan, true
	case "高於", "大於", ">":
		return types.GreaterThan, true
	}
	return "", false
}
