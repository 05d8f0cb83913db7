package untangle

import (
	"reflect"
	"sync"

	"github.com/dadrian/untangle/internal"
)

type fieldInfo struct {
	name      string
	index     int
	flatten   bool
	required  bool
	omitEmpty bool
}

type structInfo struct {
	name    string
	unit    bool
	fields  []fieldInfo
	names   []string // non-flattened field names, in declaration order
	direct  []int    // indexes into fields of the non-flattened fields
	flatten []int
}

var structCache sync.Map // reflect.Type -> *structInfo

func cachedStruct(t reflect.Type) *structInfo {
	if si, ok := structCache.Load(t); ok {
		return si.(*structInfo)
	}
	si, _ := structCache.LoadOrStore(t, buildStruct(t))
	return si.(*structInfo)
}

func buildStruct(t reflect.Type) *structInfo {
	si := &structInfo{name: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := internal.ParseTag(sf)
		if tag.Skip {
			continue
		}
		fi := fieldInfo{
			name:      tag.Name,
			index:     i,
			flatten:   tag.Flatten,
			omitEmpty: tag.OmitEmpty,
			required:  !tag.Default && !tag.OmitEmpty && sf.Type.Kind() != reflect.Pointer,
		}
		if fi.flatten {
			si.flatten = append(si.flatten, len(si.fields))
		} else {
			si.direct = append(si.direct, len(si.fields))
			si.names = append(si.names, fi.name)
		}
		si.fields = append(si.fields, fi)
	}
	si.unit = len(si.fields) == 0
	return si
}
