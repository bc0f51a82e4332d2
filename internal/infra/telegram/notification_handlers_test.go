package telegram

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renewal_notifier/internal/domain/notification"
	"renewal_notifier/internal/domain/subject"
)

// telegramMaxRunes and telegramMaxButtons are Telegram's own limits.
const (
	telegramMaxRunes   = 4096
	telegramMaxButtons = 100
)

func reminders(t *testing.T, count int, name func(i int) string) []*notification.Notification {
	t.Helper()
	list := make([]*notification.Notification, 0, count)
	for i := 0; i < count; i++ {
		n, err := notification.New(subject.KindDomain, name(i), "Namecheap",
			time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), notification.MethodEmail)
		require.NoError(t, err)
		list = append(list, n)
	}
	return list
}

func buttonCount(rows [][]string) int {
	total := 0
	for _, r := range rows {
		total += len(r)
	}
	return total
}

func TestNotificationsView_PagesLongLists(t *testing.T) {
	list := reminders(t, 40, func(i int) string { return fmt.Sprintf("site-%02d.example.com", i) })

	for page := 0; page < 2; page++ {
		text, markup := notificationsView(list, page)
		assert.LessOrEqual(t, len([]rune(text)), telegramMaxRunes)
		assert.Contains(t, text, fmt.Sprintf("Page %d of 2, 40 reminders in total.", page+1))

		rows := make([][]string, 0, len(markup.InlineKeyboard))
		for _, row := range markup.InlineKeyboard {
			var labels []string
			for _, btn := range row {
				labels = append(labels, btn.Text)
			}
			rows = append(rows, labels)
		}
		// One Delete row per reminder on the page plus the navigation row.
		require.Len(t, rows, NotificationsPerPage+1)
		assert.LessOrEqual(t, buttonCount(rows), telegramMaxButtons)
		assert.Len(t, rows[len(rows)-1], 1)
	}

	text, markup := notificationsView(list, 0)
	assert.Contains(t, text, "site-00.example.com")
	assert.NotContains(t, text, "site-20.example.com")
	assert.Equal(t, "Next »", markup.InlineKeyboard[NotificationsPerPage][0].Text)
	assert.True(t, strings.HasSuffix(markup.InlineKeyboard[0][0].Data, list[0].ID))

	text, markup = notificationsView(list, 1)
	assert.Contains(t, text, "site-20.example.com")
	assert.Equal(t, "« Prev", markup.InlineKeyboard[NotificationsPerPage][0].Text)
}

func TestNotificationsView_LongIdentifiersAreTruncated(t *testing.T) {
	long := strings.Repeat("a", 240) + ".example.com"
	list := reminders(t, 40, func(int) string { return long })

	text, _ := notificationsView(list, 0)
	assert.LessOrEqual(t, len([]rune(text)), telegramMaxRunes)
	assert.True(t, strings.HasSuffix(text, truncatedSuffix))
}

func TestNotificationsView_SinglePage(t *testing.T) {
	list := reminders(t, 3, func(i int) string { return fmt.Sprintf("site-%d.example.com", i) })

	text, markup := notificationsView(list, 5)
	assert.NotContains(t, text, "Page ")
	assert.Len(t, markup.InlineKeyboard, 3)
}

func TestPageOf(t *testing.T) {
	list := reminders(t, 41, func(i int) string { return fmt.Sprintf("site-%d.example.com", i) })

	items, page, pages := PageOf(list, 2)
	assert.Equal(t, 2, page)
	assert.Equal(t, 3, pages)
	assert.Len(t, items, 1)

	items, page, _ = PageOf(list, -1)
	assert.Equal(t, 0, page)
	assert.Len(t, items, NotificationsPerPage)

	_, page, _ = PageOf(list, 99)
	assert.Equal(t, 2, page)

	items, _, pages = PageOf(nil, 0)
	assert.Empty(t, items)
	assert.Zero(t, pages)
}

func TestParseDeleteData(t *testing.T) {
	page, id := parseDeleteData("1|6f1c0f5e-1111-4222-8333-944455556666")
	assert.Equal(t, 1, page)
	assert.Equal(t, "6f1c0f5e-1111-4222-8333-944455556666", id)

	page, id = parseDeleteData(" legacy-id ")
	assert.Zero(t, page)
	assert.Equal(t, "legacy-id", id)
}
