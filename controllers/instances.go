package controllers

import (
	"net/http"

	dbpkg "maritaca/db"
	"maritaca/models"

	"github.com/gin-gonic/gin"
)

// GET /api/instances
func GetInstances(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	var instances []models.Instance
	if err := db.Order("id asc").Find(&instances).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"instances": instances})
}

// GET /api/instances/:id
func GetInstanceByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	var instance models.Instance
	if err := db.First(&instance, id).Error; err != nil {
		RespondError(c, "instance não encontrada", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"instance": instance})
}

// POST /api/instances
func CreateInstance(c *gin.Context) {
	var instance models.Instance
	if err := c.Bind(&instance); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if instance.Name == "" {
		RespondError(c, "name é obrigatório", http.StatusBadRequest)
		return
	}
	if instance.PhoneNumberID == "" {
		RespondError(c, "phone_number_id é obrigatório", http.StatusBadRequest)
		return
	}
	if instance.AccessToken == "" {
		RespondError(c, "access_token é obrigatório", http.StatusBadRequest)
		return
	}
	instance.ID = 0
	instance.Status = models.INSTANCE_STATUS_REGISTERED

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	if err := db.Create(&instance).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"instance": instance})
}

// DELETE /api/instances/:id
func DeleteInstance(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	res := db.Where("id = ?", id).Delete(&models.Instance{})
	if res.Error != nil {
		RespondError(c, res.Error.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"deleted": res.RowsAffected})
}
