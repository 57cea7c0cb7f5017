package user

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"lsfd/internal/pkg/client/jobstore"
	ldapc "lsfd/internal/pkg/client/ldap"
	"lsfd/internal/pkg/common/response"
	"lsfd/internal/pkg/model"
)

// User is a submitter known to the ledger, enriched with directory
// attributes when LDAP has an entry for the name.
type User struct {
	Name      string              `json:"name"`
	LDAPAttrs map[string][]string `json:"ldap_attrs,omitempty"`
}

// HandlerListUsers lists submitters (paged) with LDAP attributes merged in.
//
// Flow:
//  1. Read page/page_size from the query and validate (defaults page=1,
//     page_size=20, cap 100).
//  2. Collect distinct submitter names from the submission ledger.
//  3. Batch-query LDAP for their attributes and merge.
//
// @Summary List submitters (with LDAP attributes)
// @Description Distinct submitting users from the ledger, enriched from the directory (paged)
// @Tags users
// @Produce json
// @Param page query int false "page number (from 1)"
// @Param page_size query int false "page size, 1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users [get]
func HandlerListUsers(c *gin.Context) {
	store := jobstore.Default()
	lcli := ldapc.Default()
	if store == nil || lcli == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend clients not initialized"})
		return
	}

	// Paging
	var pq model.PagingQuery
	_ = c.ShouldBindQuery(&pq)
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}

	names, err := store.GetUserNames(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	sort.Strings(names)

	total := len(names)
	start := pq.Offset()
	if start > total {
		start = total
	}
	end := start + pq.Limit()
	if end > total {
		end = total
	}
	page := names[start:end]

	attrs, err := lcli.GetUserAttributesByUIDs(c.Request.Context(), page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	users := make([]User, 0, len(page))
	for _, name := range page {
		users = append(users, User{Name: name, LDAPAttrs: attrs[name]})
	}

	prev, next := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, total)
	c.JSON(http.StatusOK, response.Response{
		Count:    &total,
		Previous: prev,
		Next:     next,
		Results:  users,
	})
}
