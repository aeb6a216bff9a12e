package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/auth"
	"github.com/clinic/clinic-admin/internal/platform/notify"
	"github.com/clinic/clinic-admin/internal/platform/resource"
)

// ShownField carries the ids of the rows the page is displaying.
const ShownField = "shown"

// DeleteHandler is the shared confirm-and-delete action behind
// POST /<resource>/:id/delete. A script caller that posts the ids it shows
// gets back the ids that remain; without them it gets 204. Plain form posts
// are redirected back to listPath. label is the capitalised record name,
// e.g. "Doctor".
func DeleteHandler(d resource.Deleter, label, listPath string, flash *notify.Flash, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := ParseID(c)
		if err != nil {
			return err
		}

		script := auth.WantsJSON(c.Request())
		rows := resource.NewListState(shownRows(c))

		err = resource.Delete(c.Request().Context(), d, id, func(id int64) {
			rows.Remove(id)
			logger.Info().Str("resource", label).Int64("id", id).Msg("record deleted")
		})
		if err != nil {
			logger.Warn().Err(err).Str("resource", label).Int64("id", id).Msg("delete failed")
			if script {
				return echo.NewHTTPError(UpstreamStatus(err), apiclient.Message(err))
			}
			flash.Error(c, "Failed to delete "+strings.ToLower(label)+": "+apiclient.Message(err))
			return c.Redirect(http.StatusSeeOther, listPath)
		}

		if script {
			if _, posted := formValues(c)[ShownField]; !posted {
				return c.NoContent(http.StatusNoContent)
			}
			remaining := make([]int64, 0, rows.Len())
			for _, r := range rows.Items() {
				remaining = append(remaining, r.GetID())
			}
			return c.JSON(http.StatusOK, map[string][]int64{"remaining": remaining})
		}
		flash.Success(c, label+" deleted successfully")
		return c.Redirect(http.StatusSeeOther, listPath)
	}
}

func formValues(c echo.Context) map[string][]string {
	values, err := c.FormParams()
	if err != nil {
		return nil
	}
	return values
}

// shownRows parses the posted row ids, skipping any that are not numbers.
func shownRows(c echo.Context) []resource.RowID {
	var rows []resource.RowID
	for _, raw := range formValues(c)[ShownField] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				continue
			}
			rows = append(rows, resource.RowID(id))
		}
	}
	return rows
}

// UpstreamStatus maps an API failure to the status the console answers with:
// client errors pass through, everything else is a bad gateway.
func UpstreamStatus(err error) int {
	if ae, ok := apiclient.AsError(err); ok && ae.Status >= 400 && ae.Status < 500 {
		return ae.Status
	}
	return http.StatusBadGateway
}
