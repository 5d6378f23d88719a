package main

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/strager/whilejvm/jvm"
)

type yamlLocal struct {
	Slot int    `yaml:"slot"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlMethod struct {
	Name       string      `yaml:"name"`
	Descriptor string      `yaml:"descriptor"`
	Static     bool        `yaml:"static,omitempty"`
	EntryPoint bool        `yaml:"entryPoint,omitempty"`
	MaxStack   int         `yaml:"maxStack"`
	MaxLocals  int         `yaml:"maxLocals"`
	Locals     []yamlLocal `yaml:"locals"`
	Code       []string    `yaml:"code"`
}

type yamlClass struct {
	Class   string       `yaml:"class"`
	Version string       `yaml:"version"`
	Methods []yamlMethod `yaml:"methods"`
}

// writeYAML writes the program as a YAML document, one entry per method.
func writeYAML(w io.Writer, p *jvm.Program) error {
	doc := yamlClass{Class: p.Name, Version: p.ClassVersion()}
	for _, f := range p.Functions {
		m := yamlMethod{
			Name:       f.Name,
			Descriptor: f.Sig.Descriptor(),
			Static:     f.Sig.Static,
			EntryPoint: f.EntryPoint,
			MaxStack:   f.MaxStack,
			MaxLocals:  f.MaxLocals,
		}
		for _, l := range f.Locals {
			m.Locals = append(m.Locals, yamlLocal{Slot: l.Slot, Name: l.Name, Type: l.Type.String()})
		}
		for _, in := range f.Code {
			m.Code = append(m.Code, in.String())
		}
		doc.Methods = append(doc.Methods, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
