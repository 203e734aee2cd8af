package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"innkeep/internal/app/commands"
	BlockApp "innkeep/internal/app/handlers/blocks"
)

type BlockHandler struct {
	Commands commands.Bus
}

type createBlockRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func (h BlockHandler) Create(c *gin.Context) {
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "malformed_body", "message": err.Error()}})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "validation_error", "message": "start_date must be a date"}})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gin.H{"code": "validation_error", "message": "end_date must be a date"}})
		return
	}
	cmd := BlockApp.CreateBlockCommand{
		CommandID:  generateCommandID(),
		Tenant:     tenantID(c),
		PropertyID: c.Param("id"),
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		IdemKey:    c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BlockApp.CreateBlockCommand, *BlockApp.BlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BlockHandler) Delete(c *gin.Context) {
	cmd := BlockApp.DeleteBlockCommand{
		Tenant:  tenantID(c),
		BlockID: c.Param("block_id"),
	}
	result, err := commands.Dispatch[BlockApp.DeleteBlockCommand, *BlockApp.DeleteBlockResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BlockHTTP = BlockHandler{}
