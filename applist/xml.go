package applist

import (
	"encoding/xml"

	"github.com/zero-install/zeroinstall/zerr"
)

// xmlDocument mirrors the on-disk AppList XML shape. The inner XML of
// each capability is carried in Capability.Raw. Unknown attributes of
// <app> are collected into appXML.ExtraAttrs while parsing but are not
// copied into AppEntry, so neither they nor unknown child elements are
// written back by Marshal.
type xmlDocument struct {
	XMLName xml.Name `xml:"http://0install.de/schema/desktop-integration/app-list app-list"`
	Apps    []appXML `xml:"app"`
}

type appXML struct {
	InterfaceURI  string           `xml:"interface,attr"`
	Name          string           `xml:"name,attr"`
	AutoUpdate    bool             `xml:"auto-update,attr"`
	HostnameRegex string           `xml:"hostname-regex,attr,omitempty"`
	Timestamp     int64            `xml:"timestamp,attr"`
	ExtraAttrs    []xml.Attr       `xml:",any,attr"`
	Requirements  *rawXML          `xml:"requirements"`
	Capabilities  []capabilityXML  `xml:"capability-registration>capability"`
	AccessPoints  *accessPointsXML `xml:"access-points"`
}

type rawXML struct {
	Inner []byte `xml:",innerxml"`
}

type capabilityXML struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

type accessPointsXML struct {
	CapabilityRegistration *struct{}        `xml:"capability-registration"`
	MenuEntries            []accessPointXML `xml:"menu"`
	DesktopIcons           []accessPointXML `xml:"desktop"`
	SendTo                 []accessPointXML `xml:"send-to"`
	AppAlias               []accessPointXML `xml:"app-alias"`
	AutoStart              []accessPointXML `xml:"auto-start"`
	Defaults               []defaultXML     `xml:"default"`
}

type accessPointXML struct {
	CapabilityID string `xml:"capability,attr,omitempty"`
	Category     string `xml:"name,attr,omitempty"`
}

type defaultXML struct {
	Kind       string `xml:"for,attr"`
	Extension  string `xml:"extension,attr,omitempty"`
	ProtocolID string `xml:"protocol,attr,omitempty"`
}

// Marshal renders list to its canonical XML form.
func Marshal(list *AppList) ([]byte, error) {
	doc := xmlDocument{}
	for _, e := range list.Entries {
		doc.Apps = append(doc.Apps, toAppXML(e))
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &zerr.InvalidData{Context: "app-list marshal", Cause: err}
	}
	return data, nil
}

// Unmarshal parses the AppList XML form produced by Marshal.
func Unmarshal(data []byte) (*AppList, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &zerr.InvalidData{Context: "app-list unmarshal", Cause: err}
	}
	list := &AppList{}
	for _, a := range doc.Apps {
		list.Entries = append(list.Entries, fromAppXML(a))
	}
	return list, nil
}

func toAppXML(e *AppEntry) appXML {
	a := appXML{
		InterfaceURI:  e.InterfaceURI,
		Name:          e.Name,
		AutoUpdate:    e.AutoUpdate,
		HostnameRegex: e.HostnameRegex,
		Timestamp:     e.Timestamp,
	}
	if e.Requirements != "" {
		a.Requirements = &rawXML{Inner: []byte(e.Requirements)}
	}
	for _, c := range e.Capabilities {
		a.Capabilities = append(a.Capabilities, capabilityXML{XMLName: xml.Name{Local: c.XMLName}, Inner: c.Raw})
	}
	if e.HasAccessPoint {
		a.AccessPoints = toAccessPointsXML(e.AccessPoints)
	}
	return a
}

func toAccessPointsXML(points []AccessPoint) *accessPointsXML {
	out := &accessPointsXML{}
	for _, ap := range points {
		switch ap.Kind {
		case KindCapabilityRegistration:
			out.CapabilityRegistration = &struct{}{}
		case KindMenuEntry:
			out.MenuEntries = append(out.MenuEntries, accessPointXML{CapabilityID: ap.CapabilityID, Category: ap.Category})
		case KindDesktopIcon:
			out.DesktopIcons = append(out.DesktopIcons, accessPointXML{CapabilityID: ap.CapabilityID})
		case KindSendTo:
			out.SendTo = append(out.SendTo, accessPointXML{CapabilityID: ap.CapabilityID, Category: ap.Category})
		case KindAppAlias:
			out.AppAlias = append(out.AppAlias, accessPointXML{Category: ap.Category})
		case KindAutoStart:
			out.AutoStart = append(out.AutoStart, accessPointXML{CapabilityID: ap.CapabilityID})
		case KindDefaultAccessPoint:
			out.Defaults = append(out.Defaults, defaultXML{Kind: string(ap.Default), Extension: ap.Extension, ProtocolID: ap.ProtocolID})
		}
	}
	return out
}

func fromAppXML(a appXML) *AppEntry {
	e := &AppEntry{
		InterfaceURI:  a.InterfaceURI,
		Name:          a.Name,
		AutoUpdate:    a.AutoUpdate,
		HostnameRegex: a.HostnameRegex,
		Timestamp:     a.Timestamp,
	}
	if a.Requirements != nil {
		e.Requirements = string(a.Requirements.Inner)
	}
	for _, c := range a.Capabilities {
		e.Capabilities = append(e.Capabilities, Capability{XMLName: c.XMLName.Local, Raw: c.Inner})
	}
	if a.AccessPoints != nil {
		e.HasAccessPoint = true
		e.AccessPoints = fromAccessPointsXML(a.AccessPoints)
	}
	return e
}

func fromAccessPointsXML(x *accessPointsXML) []AccessPoint {
	var out []AccessPoint
	if x.CapabilityRegistration != nil {
		out = append(out, AccessPoint{Kind: KindCapabilityRegistration})
	}
	for _, m := range x.MenuEntries {
		out = append(out, AccessPoint{Kind: KindMenuEntry, CapabilityID: m.CapabilityID, Category: m.Category})
	}
	for _, d := range x.DesktopIcons {
		out = append(out, AccessPoint{Kind: KindDesktopIcon, CapabilityID: d.CapabilityID})
	}
	for _, s := range x.SendTo {
		out = append(out, AccessPoint{Kind: KindSendTo, CapabilityID: s.CapabilityID, Category: s.Category})
	}
	for _, al := range x.AppAlias {
		out = append(out, AccessPoint{Kind: KindAppAlias, Category: al.Category})
	}
	for _, as := range x.AutoStart {
		out = append(out, AccessPoint{Kind: KindAutoStart, CapabilityID: as.CapabilityID})
	}
	for _, d := range x.Defaults {
		out = append(out, AccessPoint{
			Kind:       KindDefaultAccessPoint,
			Default:    DefaultKind(d.Kind),
			Extension:  d.Extension,
			ProtocolID: d.ProtocolID,
		})
	}
	return out
}
