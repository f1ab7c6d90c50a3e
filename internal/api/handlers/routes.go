package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every resource handler mounted under /api/v1
type Handlers struct {
	Shipments        *ShipmentHandler
	Packages         *PackageHandler
	ShipmentPackages *ShipmentPackageHandler
	Catalog          *CatalogHandler
}

// RegisterRoutes mounts the resource routes on v1
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers) {
	shipments := v1.Group("/shipments")
	{
		shipments.POST("", h.Shipments.CreateShipment)
		shipments.POST("/batch", h.Shipments.CreateShipments)
		shipments.GET("", h.Shipments.ListShipments)
		shipments.GET("/:id", h.Shipments.GetShipment)
		shipments.PUT("/:id", h.Shipments.UpdateShipment)
		shipments.PUT("/:id/status", h.Shipments.UpdateShipmentStatus)
		shipments.DELETE("/:id", h.Shipments.DeleteShipment)
		shipments.GET("/:id/packages", h.ShipmentPackages.ListShipmentPackages)
	}

	packages := v1.Group("/packages")
	{
		packages.POST("", h.Packages.CreatePackage)
		packages.POST("/batch", h.Packages.CreatePackages)
		packages.GET("", h.Packages.ListPackages)
		packages.GET("/:id", h.Packages.GetPackage)
		packages.PUT("/:id", h.Packages.UpdatePackage)
		packages.PUT("/:id/status", h.Packages.UpdatePackageStatus)
		packages.DELETE("/:id", h.Packages.DeletePackage)
	}

	v1.POST("/package-products", h.Packages.AddPackageProduct)

	links := v1.Group("/shipment-packages")
	{
		links.POST("", h.ShipmentPackages.CreateShipmentPackages)
		links.GET("/:id", h.ShipmentPackages.GetShipmentPackage)
		links.DELETE("/:id", h.ShipmentPackages.DeleteShipmentPackage)
	}

	carriers := v1.Group("/carriers")
	{
		carriers.POST("", h.Catalog.CreateCarrier)
		carriers.GET("", h.Catalog.ListCarriers)
		carriers.GET("/:id", h.Catalog.GetCarrier)
		carriers.PUT("/:id", h.Catalog.UpdateCarrier)
		carriers.DELETE("/:id", h.Catalog.DeleteCarrier)
	}

	warehouses := v1.Group("/warehouses")
	{
		warehouses.POST("", h.Catalog.CreateWarehouse)
		warehouses.GET("", h.Catalog.ListWarehouses)
		warehouses.GET("/:id", h.Catalog.GetWarehouse)
		warehouses.PUT("/:id", h.Catalog.UpdateWarehouse)
		warehouses.DELETE("/:id", h.Catalog.DeleteWarehouse)
	}

	products := v1.Group("/products")
	{
		products.POST("", h.Catalog.CreateProduct)
		products.GET("/:id", h.Catalog.GetProduct)
	}
}
