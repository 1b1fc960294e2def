package ui

import (
	"consensus-chat/domain"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Roster renders the online users of a room.
func Roster(users domain.Roster) string {
	rows := make([][]string, 0, len(users))
	for i, u := range users {
		rows = append(rows, []string{strconv.Itoa(i + 1), string(u)})
	}
	return render([]string{"#", "Online"}, rows)
}

// Breakdown renders the agent outputs a consensus was built from.
func Breakdown(m domain.ConsensusMessage) string {
	rows := make([][]string, 0, len(m.AgentResponses))
	for _, c := range m.AgentResponses {
		rows = append(rows, []string{c.AgentName, m.ModeUsed.Label(), c.Content})
	}
	return render([]string{"Agent", "Mode", "Response"}, rows)
}

// Results renders search hits in arrival order.
func Results(messages []domain.Message) string {
	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		at := ""
		if !m.SentAt().IsZero() {
			at = m.SentAt().Format("15:04:05")
		}
		rows = append(rows, []string{
			at,
			string(m.Kind()),
			domain.Author(m),
			m.Text(),
		})
	}
	return render([]string{"Time", "Kind", "Author", "Text"}, rows)
}

func render(header []string, rows [][]string) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
	return sb.String()
}
