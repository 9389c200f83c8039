// Package config loads the YAML file that drives the mongoweaver binary: server
// settings, Mongo connection, model definitions and the resources mounting them.
//
//	models:
//	  - name: person
//	    fields:
//	      - {path: name, type: string, required: true}
//	      - {path: _secret, type: string}
//	resources:
//	  - model: person
//	    methods: {find: true, findById: true}
package config
