package main

import (
	"strconv"
	"strings"

	"apiscraper/pkg/models"
)

const cellWidth = 60

func cell(s *string) string {
	return truncate(models.Deref(s, "-"))
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > cellWidth {
		return string(r[:cellWidth-3]) + "..."
	}
	return s
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func tweetTable(tweets []models.Tweet) ([]string, [][]string) {
	header := []string{"ID", "User", "Text", "Likes", "Retweets", "Created"}
	rows := make([][]string, 0, len(tweets))
	for _, t := range tweets {
		user := "-"
		if t.User.ScreenName != nil {
			user = "@" + *t.User.ScreenName
		}
		rows = append(rows, []string{cell(t.ID), user, cell(t.Text), intCell(t.FavoriteCount), intCell(t.RetweetCount), cell(t.CreatedAt)})
	}
	return header, rows
}

func jobTable(jobs []models.Job) ([]string, [][]string) {
	header := []string{"ID", "Title", "Company", "Location", "Salary", "Posted"}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{cell(j.ID), cell(j.Title), cell(j.Company), cell(j.Location), cell(j.Salary), cell(j.DatePosted)})
	}
	return header, rows
}

func businessTable(businesses []models.Business) ([]string, [][]string) {
	header := []string{"Name", "Rating", "Reviews", "Price", "Categories", "Address"}
	rows := make([][]string, 0, len(businesses))
	for _, b := range businesses {
		var cats []string
		for _, c := range b.Categories {
			if c.Title != nil {
				cats = append(cats, *c.Title)
			}
		}
		rows = append(rows, []string{
			cell(b.Name),
			floatCell(b.Rating),
			intCell(b.ReviewCount),
			cell(b.Price),
			truncate(strings.Join(cats, ", ")),
			cell(b.Location.DisplayAddress),
		})
	}
	return header, rows
}
