// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ifc

import (
	"sort"
	"strings"
)

// supertypes maps an entity name to its direct supertype for the IfcProduct
// subtypes of IFC2X3, IFC4 and IFC4X3 that carry geometry or metadata,
// plus the few relationship and property entities the metadata extractor
// inspects.
// Where the schemas disagree (IfcBuildingElement became IfcBuiltElement)
// both names are listed; every chain still ends at IfcProduct.
var supertypes = map[string]string{
	"IfcProduct": "IfcObject",
	"IfcObject":  "IfcObjectDefinition",

	"IfcElement":                         "IfcProduct",
	"IfcSpatialElement":                  "IfcProduct",
	"IfcSpatialStructureElement":         "IfcSpatialElement",
	"IfcAnnotation":                      "IfcProduct",
	"IfcGrid":                            "IfcProduct",
	"IfcPort":                            "IfcProduct",
	"IfcProxy":                           "IfcProduct",
	"IfcStructuralActivity":              "IfcProduct",
	"IfcStructuralItem":                  "IfcProduct",
	"IfcPositioningElement":              "IfcProduct",
	"IfcLinearElement":                   "IfcProduct",
	"IfcAlignmentSegment":                "IfcLinearElement",
	"IfcLinearPositioningElement":        "IfcPositioningElement",
	"IfcAlignment":                       "IfcLinearPositioningElement",
	"IfcReferent":                        "IfcPositioningElement",
	"IfcDistributionPort":                "IfcPort",
	"IfcSpatialZone":                     "IfcSpatialElement",
	"IfcExternalSpatialElement":          "IfcExternalSpatialStructureElement",
	"IfcExternalSpatialStructureElement": "IfcSpatialElement",

	"IfcSite":           "IfcSpatialStructureElement",
	"IfcBuilding":       "IfcSpatialStructureElement",
	"IfcBuildingStorey": "IfcSpatialStructureElement",
	"IfcSpace":          "IfcSpatialStructureElement",
	"IfcFacility":       "IfcSpatialStructureElement",
	"IfcFacilityPart":   "IfcSpatialStructureElement",
	"IfcBridge":         "IfcFacility",
	"IfcRoad":           "IfcFacility",
	"IfcRailway":        "IfcFacility",
	"IfcMarineFacility": "IfcFacility",
	"IfcBridgePart":     "IfcFacilityPart",
	"IfcRoadPart":       "IfcFacilityPart",
	"IfcRailwayPart":    "IfcFacilityPart",

	"IfcBuildingElement":      "IfcElement",
	"IfcBuiltElement":         "IfcElement",
	"IfcCivilElement":         "IfcElement",
	"IfcDistributionElement":  "IfcElement",
	"IfcElementAssembly":      "IfcElement",
	"IfcElementComponent":     "IfcElement",
	"IfcEquipmentElement":     "IfcElement",
	"IfcFeatureElement":       "IfcElement",
	"IfcFurnishingElement":    "IfcElement",
	"IfcGeographicElement":    "IfcElement",
	"IfcTransportElement":     "IfcElement",
	"IfcVirtualElement":       "IfcElement",
	"IfcElectricalElement":    "IfcElement",
	"IfcCourse":               "IfcBuiltElement",
	"IfcEarthworksElement":    "IfcBuiltElement",
	"IfcEarthworksFill":       "IfcEarthworksElement",
	"IfcKerb":                 "IfcBuiltElement",
	"IfcPavement":             "IfcBuiltElement",
	"IfcRail":                 "IfcBuiltElement",
	"IfcTrackElement":         "IfcBuiltElement",
	"IfcNavigationElement":    "IfcBuiltElement",
	"IfcMooringDevice":        "IfcBuiltElement",
	"IfcGeotechnicalElement":  "IfcElement",
	"IfcGeotechnicalAssembly": "IfcGeotechnicalElement",
	"IfcGeotechnicalStratum":  "IfcGeotechnicalElement",
	"IfcBorehole":             "IfcGeotechnicalAssembly",
	"IfcGeomodel":             "IfcGeotechnicalAssembly",
	"IfcGeoslice":             "IfcGeotechnicalAssembly",

	"IfcBeam":                     "IfcBuildingElement",
	"IfcBeamStandardCase":         "IfcBeam",
	"IfcBearing":                  "IfcBuildingElement",
	"IfcBuildingElementProxy":     "IfcBuildingElement",
	"IfcBuildingElementComponent": "IfcBuildingElement",
	"IfcChimney":                  "IfcBuildingElement",
	"IfcColumn":                   "IfcBuildingElement",
	"IfcColumnStandardCase":       "IfcColumn",
	"IfcCovering":                 "IfcBuildingElement",
	"IfcCurtainWall":              "IfcBuildingElement",
	"IfcDeepFoundation":           "IfcBuildingElement",
	"IfcCaissonFoundation":        "IfcDeepFoundation",
	"IfcDoor":                     "IfcBuildingElement",
	"IfcDoorStandardCase":         "IfcDoor",
	"IfcFooting":                  "IfcBuildingElement",
	"IfcMember":                   "IfcBuildingElement",
	"IfcMemberStandardCase":       "IfcMember",
	"IfcPile":                     "IfcBuildingElement",
	"IfcPlate":                    "IfcBuildingElement",
	"IfcPlateStandardCase":        "IfcPlate",
	"IfcRailing":                  "IfcBuildingElement",
	"IfcRamp":                     "IfcBuildingElement",
	"IfcRampFlight":               "IfcBuildingElement",
	"IfcRoof":                     "IfcBuildingElement",
	"IfcShadingDevice":            "IfcBuildingElement",
	"IfcSlab":                     "IfcBuildingElement",
	"IfcSlabElementedCase":        "IfcSlab",
	"IfcSlabStandardCase":         "IfcSlab",
	"IfcStair":                    "IfcBuildingElement",
	"IfcStairFlight":              "IfcBuildingElement",
	"IfcWall":                     "IfcBuildingElement",
	"IfcWallElementedCase":        "IfcWall",
	"IfcWallStandardCase":         "IfcWall",
	"IfcWindow":                   "IfcBuildingElement",
	"IfcWindowStandardCase":       "IfcWindow",

	"IfcFeatureElementAddition":    "IfcFeatureElement",
	"IfcFeatureElementSubtraction": "IfcFeatureElement",
	"IfcSurfaceFeature":            "IfcFeatureElement",
	"IfcProjectionElement":         "IfcFeatureElementAddition",
	"IfcOpeningElement":            "IfcFeatureElementSubtraction",
	"IfcOpeningStandardCase":       "IfcOpeningElement",
	"IfcVoidingFeature":            "IfcFeatureElementSubtraction",
	"IfcEarthworksCut":             "IfcFeatureElementSubtraction",
	"IfcEdgeFeature":               "IfcFeatureElementSubtraction",
	"IfcChamferEdgeFeature":        "IfcEdgeFeature",
	"IfcRoundedEdgeFeature":        "IfcEdgeFeature",

	"IfcFurniture":              "IfcFurnishingElement",
	"IfcSystemFurnitureElement": "IfcFurnishingElement",

	"IfcBuildingElementPart":    "IfcElementComponent",
	"IfcDiscreteAccessory":      "IfcElementComponent",
	"IfcFastener":               "IfcElementComponent",
	"IfcMechanicalFastener":     "IfcElementComponent",
	"IfcReinforcingElement":     "IfcElementComponent",
	"IfcVibrationIsolator":      "IfcElementComponent",
	"IfcVibrationDamper":        "IfcElementComponent",
	"IfcImpactProtectionDevice": "IfcElementComponent",
	"IfcSign":                   "IfcElementComponent",
	"IfcReinforcingBar":         "IfcReinforcingElement",
	"IfcReinforcingMesh":        "IfcReinforcingElement",
	"IfcTendon":                 "IfcReinforcingElement",
	"IfcTendonAnchor":           "IfcReinforcingElement",
	"IfcTendonConduit":          "IfcReinforcingElement",

	"IfcDistributionFlowElement":    "IfcDistributionElement",
	"IfcDistributionControlElement": "IfcDistributionElement",
	"IfcDistributionChamberElement": "IfcDistributionFlowElement",
	"IfcEnergyConversionDevice":     "IfcDistributionFlowElement",
	"IfcFlowController":             "IfcDistributionFlowElement",
	"IfcFlowFitting":                "IfcDistributionFlowElement",
	"IfcFlowMovingDevice":           "IfcDistributionFlowElement",
	"IfcFlowSegment":                "IfcDistributionFlowElement",
	"IfcFlowStorageDevice":          "IfcDistributionFlowElement",
	"IfcFlowTerminal":               "IfcDistributionFlowElement",
	"IfcFlowTreatmentDevice":        "IfcDistributionFlowElement",

	"IfcCableCarrierSegment": "IfcFlowSegment",
	"IfcCableSegment":        "IfcFlowSegment",
	"IfcDuctSegment":         "IfcFlowSegment",
	"IfcPipeSegment":         "IfcFlowSegment",
	"IfcConveyorSegment":     "IfcFlowSegment",

	"IfcCableCarrierFitting": "IfcFlowFitting",
	"IfcCableFitting":        "IfcFlowFitting",
	"IfcDuctFitting":         "IfcFlowFitting",
	"IfcJunctionBox":         "IfcFlowFitting",
	"IfcPipeFitting":         "IfcFlowFitting",

	"IfcAirTerminal":                       "IfcFlowTerminal",
	"IfcAudioVisualAppliance":              "IfcFlowTerminal",
	"IfcCommunicationsAppliance":           "IfcFlowTerminal",
	"IfcElectricAppliance":                 "IfcFlowTerminal",
	"IfcFireSuppressionTerminal":           "IfcFlowTerminal",
	"IfcLamp":                              "IfcFlowTerminal",
	"IfcLightFixture":                      "IfcFlowTerminal",
	"IfcLiquidTerminal":                    "IfcFlowTerminal",
	"IfcMedicalDevice":                     "IfcFlowTerminal",
	"IfcMobileTelecommunicationsAppliance": "IfcFlowTerminal",
	"IfcOutlet":                            "IfcFlowTerminal",
	"IfcSanitaryTerminal":                  "IfcFlowTerminal",
	"IfcSignal":                            "IfcFlowTerminal",
	"IfcSpaceHeater":                       "IfcFlowTerminal",
	"IfcStackTerminal":                     "IfcFlowTerminal",
	"IfcWasteTerminal":                     "IfcFlowTerminal",

	"IfcAirTerminalBox":            "IfcFlowController",
	"IfcDamper":                    "IfcFlowController",
	"IfcElectricDistributionBoard": "IfcFlowController",
	"IfcElectricTimeControl":       "IfcFlowController",
	"IfcFlowMeter":                 "IfcFlowController",
	"IfcProtectiveDevice":          "IfcFlowController",
	"IfcSwitchingDevice":           "IfcFlowController",
	"IfcValve":                     "IfcFlowController",

	"IfcCompressor": "IfcFlowMovingDevice",
	"IfcFan":        "IfcFlowMovingDevice",
	"IfcPump":       "IfcFlowMovingDevice",

	"IfcElectricFlowStorageDevice": "IfcFlowStorageDevice",
	"IfcTank":                      "IfcFlowStorageDevice",

	"IfcDuctSilencer": "IfcFlowTreatmentDevice",
	"IfcFilter":       "IfcFlowTreatmentDevice",
	"IfcInterceptor":  "IfcFlowTreatmentDevice",

	"IfcAirToAirHeatRecovery": "IfcEnergyConversionDevice",
	"IfcBoiler":               "IfcEnergyConversionDevice",
	"IfcBurner":               "IfcEnergyConversionDevice",
	"IfcChiller":              "IfcEnergyConversionDevice",
	"IfcCoil":                 "IfcEnergyConversionDevice",
	"IfcCondenser":            "IfcEnergyConversionDevice",
	"IfcCooledBeam":           "IfcEnergyConversionDevice",
	"IfcCoolingTower":         "IfcEnergyConversionDevice",
	"IfcElectricGenerator":    "IfcEnergyConversionDevice",
	"IfcElectricMotor":        "IfcEnergyConversionDevice",
	"IfcEngine":               "IfcEnergyConversionDevice",
	"IfcEvaporativeCooler":    "IfcEnergyConversionDevice",
	"IfcEvaporator":           "IfcEnergyConversionDevice",
	"IfcHeatExchanger":        "IfcEnergyConversionDevice",
	"IfcHumidifier":           "IfcEnergyConversionDevice",
	"IfcMotorConnection":      "IfcEnergyConversionDevice",
	"IfcSolarDevice":          "IfcEnergyConversionDevice",
	"IfcTransformer":          "IfcEnergyConversionDevice",
	"IfcTubeBundle":           "IfcEnergyConversionDevice",
	"IfcUnitaryEquipment":     "IfcEnergyConversionDevice",

	"IfcActuator":                     "IfcDistributionControlElement",
	"IfcAlarm":                        "IfcDistributionControlElement",
	"IfcController":                   "IfcDistributionControlElement",
	"IfcFlowInstrument":               "IfcDistributionControlElement",
	"IfcProtectiveDeviceTrippingUnit": "IfcDistributionControlElement",
	"IfcSensor":                       "IfcDistributionControlElement",
	"IfcUnitaryControlElement":        "IfcDistributionControlElement",

	"IfcStructuralMember":               "IfcStructuralItem",
	"IfcStructuralConnection":           "IfcStructuralItem",
	"IfcStructuralCurveMember":          "IfcStructuralMember",
	"IfcStructuralCurveMemberVarying":   "IfcStructuralCurveMember",
	"IfcStructuralSurfaceMember":        "IfcStructuralMember",
	"IfcStructuralSurfaceMemberVarying": "IfcStructuralSurfaceMember",
	"IfcStructuralPointConnection":      "IfcStructuralConnection",
	"IfcStructuralCurveConnection":      "IfcStructuralConnection",
	"IfcStructuralSurfaceConnection":    "IfcStructuralConnection",
	"IfcStructuralAction":               "IfcStructuralActivity",
	"IfcStructuralReaction":             "IfcStructuralActivity",
	"IfcStructuralPointAction":          "IfcStructuralAction",
	"IfcStructuralCurveAction":          "IfcStructuralAction",
	"IfcStructuralLinearAction":         "IfcStructuralCurveAction",
	"IfcStructuralSurfaceAction":        "IfcStructuralAction",
	"IfcStructuralPlanarAction":         "IfcStructuralSurfaceAction",
	"IfcStructuralPointReaction":        "IfcStructuralReaction",
	"IfcStructuralCurveReaction":        "IfcStructuralReaction",
	"IfcStructuralSurfaceReaction":      "IfcStructuralReaction",

	"IfcRelContainedInSpatialStructure": "IfcRelConnects",
	"IfcRelDefinesByProperties":         "IfcRelDefines",
	"IfcRelDefinesByType":               "IfcRelDefines",
	"IfcPropertySet":                    "IfcPropertySetDefinition",
	"IfcElementQuantity":                "IfcQuantitySet",
	"IfcQuantitySet":                    "IfcPropertySetDefinition",
	"IfcTypeObject":                     "IfcObjectDefinition",
	"IfcTypeProduct":                    "IfcTypeObject",
	"IfcElementType":                    "IfcTypeProduct",
}

var (
	// canonical maps the upper-case STEP spelling to the schema spelling.
	canonical = map[string]string{}
	// parentOf maps an upper-case name to its upper-case supertype.
	parentOf = map[string]string{}
)

func init() {
	for name, super := range supertypes {
		canonical[strings.ToUpper(name)] = name
		canonical[strings.ToUpper(super)] = super
		parentOf[strings.ToUpper(name)] = strings.ToUpper(super)
	}
}

// CanonicalName returns the schema spelling of an entity name given in any
// case ("IFCWALLSTANDARDCASE" becomes "IfcWallStandardCase"). Names outside
// the known hierarchy keep the "Ifc" prefix with the rest lower-cased.
func CanonicalName(name string) string {
	upper := strings.ToUpper(name)
	if c, ok := canonical[upper]; ok {
		return c
	}
	if strings.HasPrefix(upper, "IFC") && len(upper) > 3 {
		rest := strings.ToLower(upper[3:])
		return "Ifc" + strings.ToUpper(rest[:1]) + rest[1:]
	}
	return name
}

// IsA reports whether entity type name equals super or is one of its
// subtypes. Both arguments are case-insensitive.
func IsA(name, super string) bool {
	n := strings.ToUpper(name)
	s := strings.ToUpper(super)
	for depth := 0; n != "" && depth < 32; depth++ {
		if n == s {
			return true
		}
		n = parentOf[n]
	}
	return false
}

// Subtypes returns the schema spelling of name followed by every known
// entity that specializes it, sorted. An unknown name yields only itself.
func Subtypes(name string) []string {
	self := CanonicalName(name)
	var out []string
	for upper, c := range canonical {
		if c != self && IsA(upper, name) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return append([]string{self}, out...)
}
