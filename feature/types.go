// Package feature implements the feature codec (spec.md §4.2): a
// self-describing, table-of-contents style byte record for one CityJSON
// feature, allowing zero-copy access to its MBR and lazy, decode-only-what-
// you-need access to its attributes and geometry.
//
// A record never stores its own length; per spec.md §3.3 the feature
// section is written in Hilbert order and a reader derives record i's size
// from offset(i+1)-offset(i), so Parse trusts the slice bound the caller
// hands it (typically the exact span the container or range-fetch reader
// sliced out).
package feature

import "github.com/cityjson/flatcitybuf/format"

// CityObjectType mirrors CityJSON's top-level "type" discriminant for a
// CityObject (spec.md §4.2 [EXPANDED]).
type CityObjectType uint8

const (
	TypeUnknown CityObjectType = iota
	TypeBuilding
	TypeBuildingPart
	TypeBuildingInstallation
	TypeBridge
	TypeBridgePart
	TypeBridgeInstallation
	TypeBridgeConstructionElement
	TypeCityFurniture
	TypeCityObjectGroup
	TypeGenericCityObject
	TypeLandUse
	TypePlantCover
	TypeSolitaryVegetationObject
	TypeTINRelief
	TypeTransportationSquare
	TypeRoad
	TypeRailway
	TypeTunnel
	TypeTunnelPart
	TypeTunnelInstallation
	TypeWaterBody
)

func (t CityObjectType) String() string {
	switch t {
	case TypeBuilding:
		return "Building"
	case TypeBuildingPart:
		return "BuildingPart"
	case TypeBuildingInstallation:
		return "BuildingInstallation"
	case TypeBridge:
		return "Bridge"
	case TypeBridgePart:
		return "BridgePart"
	case TypeBridgeInstallation:
		return "BridgeInstallation"
	case TypeBridgeConstructionElement:
		return "BridgeConstructionElement"
	case TypeCityFurniture:
		return "CityFurniture"
	case TypeCityObjectGroup:
		return "CityObjectGroup"
	case TypeGenericCityObject:
		return "GenericCityObject"
	case TypeLandUse:
		return "LandUse"
	case TypePlantCover:
		return "PlantCover"
	case TypeSolitaryVegetationObject:
		return "SolitaryVegetationObject"
	case TypeTINRelief:
		return "TINRelief"
	case TypeTransportationSquare:
		return "TransportationSquare"
	case TypeRoad:
		return "Road"
	case TypeRailway:
		return "Railway"
	case TypeTunnel:
		return "Tunnel"
	case TypeTunnelPart:
		return "TunnelPart"
	case TypeTunnelInstallation:
		return "TunnelInstallation"
	case TypeWaterBody:
		return "WaterBody"
	default:
		return "Unknown"
	}
}

// ParseCityObjectType is the inverse of String, matching CityJSON's "type"
// discriminant string exactly. ok is false for any string CityObjectType
// does not itself enumerate (CityJSON extension object types fall through
// to TypeGenericCityObject at the caller's discretion, not here).
func ParseCityObjectType(s string) (t CityObjectType, ok bool) {
	switch s {
	case "Building":
		return TypeBuilding, true
	case "BuildingPart":
		return TypeBuildingPart, true
	case "BuildingInstallation":
		return TypeBuildingInstallation, true
	case "Bridge":
		return TypeBridge, true
	case "BridgePart":
		return TypeBridgePart, true
	case "BridgeInstallation":
		return TypeBridgeInstallation, true
	case "BridgeConstructionElement":
		return TypeBridgeConstructionElement, true
	case "CityFurniture":
		return TypeCityFurniture, true
	case "CityObjectGroup":
		return TypeCityObjectGroup, true
	case "GenericCityObject":
		return TypeGenericCityObject, true
	case "LandUse":
		return TypeLandUse, true
	case "PlantCover":
		return TypePlantCover, true
	case "SolitaryVegetationObject":
		return TypeSolitaryVegetationObject, true
	case "TINRelief":
		return TypeTINRelief, true
	case "TransportationSquare":
		return TypeTransportationSquare, true
	case "Road":
		return TypeRoad, true
	case "Railway":
		return TypeRailway, true
	case "Tunnel":
		return TypeTunnel, true
	case "TunnelPart":
		return TypeTunnelPart, true
	case "TunnelInstallation":
		return TypeTunnelInstallation, true
	case "WaterBody":
		return TypeWaterBody, true
	default:
		return TypeUnknown, false
	}
}

// Vertex is a local, feature-relative 3-D coordinate. Feature geometry
// boundaries index into the record's own vertex array by position.
type Vertex struct {
	X, Y, Z float64
}

// Attribute is one column value attached to a feature, tagged with its
// declared column type; AttributeByOrdinal returns that stored type
// alongside the value.
type Attribute struct {
	Ordinal uint16
	Type    format.ColumnType
	Raw     []byte // the encoded value, in the format described by Type
}
