package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xKaaZz/Waeleaks/internal/domain"
)

const stampLayout = "2006-01-02 15:04"

func describeResult(res domain.SyncResult) string {
	switch len(res.Added) {
	case 0:
		return fmt.Sprintf("%s: no new chapters", res.Title)
	case 1:
		return fmt.Sprintf("%s: 1 new chapter (%d)", res.Title, res.Added[0])
	default:
		return fmt.Sprintf("%s: %d new chapters (%s)", res.Title, len(res.Added), joinNumbers(res.Added))
	}
}

func renderCheckResults(results []domain.SyncResult) string {
	if len(results) == 0 {
		return "No new chapters."
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{res.Title, strconv.Itoa(len(res.Added)), strconv.Itoa(res.Latest())})
	}
	return renderTable([]string{"Title", "New", "Latest"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}

func renderTitles(titles []domain.Title) string {
	if len(titles) == 0 {
		return "No titles tracked."
	}
	rows := make([][]string, 0, len(titles))
	for _, t := range titles {
		unseen := ""
		if t.HasNewChapter {
			unseen = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Name,
			unseen,
			t.CreatedAt.Local().Format(stampLayout),
		})
	}
	return renderTable([]string{"ID", "Title", "New", "Added"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
}

func renderChapters(chapters []domain.Chapter, readIDs []int64) string {
	if len(chapters) == 0 {
		return "No chapters."
	}
	read := make(map[int64]struct{}, len(readIDs))
	for _, id := range readIDs {
		read[id] = struct{}{}
	}

	rows := make([][]string, 0, len(chapters))
	for _, ch := range chapters {
		mark := ""
		if _, ok := read[ch.ID]; ok {
			mark = "✓"
		}
		rows = append(rows, []string{
			strconv.FormatInt(ch.ID, 10),
			strconv.Itoa(ch.Number),
			strconv.Itoa(len(ch.Pages)),
			mark,
		})
	}
	return renderTable([]string{"ID", "Chapter", "Pages", "Read"}, rows, []columnAlignment{alignRight, alignRight, alignRight, alignLeft})
}

func renderChapter(view domain.ChapterView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter %d (id %d)\n", view.Number, view.ID)
	fmt.Fprintf(&b, "Previous: %s\n", optionalID(view.PreviousChapterID))
	fmt.Fprintf(&b, "Next:     %s\n", optionalID(view.NextChapterID))
	for i, page := range view.Pages {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, page)
	}
	return b.String()
}

func optionalID(id *int64) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(*id, 10)
}

func joinNumbers(numbers []int) string {
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}
