package http

import (
	"context"

	"github.com/kt-primus/einsatzplanung/internal/domain"
)

type CatalogService interface {
	ShiftTypes(ctx context.Context) ([]domain.ShiftType, error)
	CreateShiftType(ctx context.Context, actor string, st domain.ShiftType) (*domain.ShiftType, error)
	UpdateShiftType(ctx context.Context, actor string, st domain.ShiftType) (*domain.ShiftType, error)
	DeleteShiftType(ctx context.Context, actor, id string) error
	Vehicles(ctx context.Context) ([]domain.Vehicle, error)
	CreateVehicle(ctx context.Context, actor string, v domain.Vehicle) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, actor string, v domain.Vehicle) (*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, actor, id string) error
}

type Handler struct {
	catalog CatalogService
}

func New(catalog CatalogService) *Handler {
	return &Handler{catalog: catalog}
}

type shiftTypeRequest struct {
	ID             string   `json:"id" binding:"omitempty,max=64,excludesall=/"`
	Code           string   `json:"code" binding:"required,max=4"`
	Name           string   `json:"name" binding:"required,max=64"`
	Color          string   `json:"color" binding:"required,hexcolor,len=7"`
	HoursValue     *float64 `json:"hoursValue" binding:"omitempty,gte=0,lte=24"`
	StartTime      string   `json:"startTime" binding:"omitempty,datetime=15:04"`
	EndTime        string   `json:"endTime" binding:"omitempty,datetime=15:04"`
	ActiveWeekdays []string `json:"activeWeekdays" binding:"omitempty,max=7,dive,oneof=Mo Di Mi Do Fr Sa So"`
}

func (r shiftTypeRequest) toDomain(id string) domain.ShiftType {
	return domain.ShiftType{
		ID:             id,
		Code:           r.Code,
		Name:           r.Name,
		Color:          r.Color,
		HoursValue:     r.HoursValue,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		ActiveWeekdays: r.ActiveWeekdays,
	}
}

type vehicleRequest struct {
	ID    string `json:"id" binding:"omitempty,max=64,excludesall=/"`
	Name  string `json:"name" binding:"required,max=64"`
	Plate string `json:"plate" binding:"required,max=16"`
}

func (r vehicleRequest) toDomain(id string) domain.Vehicle {
	return domain.Vehicle{ID: id, Name: r.Name, Plate: r.Plate}
}
