package graph

// ServiceIndex maintains, per service_id, an insertion-ordered list of
// event ids, plus cached last-per-(service, event_type) pointers updated
// on every ingest so last_of is O(1) instead of a scan (spec §4.D).
type ServiceIndex struct {
	byService map[string][]string
	lastOf    map[string]string // "service_id\x00event_type" -> event_id
}

func NewServiceIndex() *ServiceIndex {
	return &ServiceIndex{
		byService: make(map[string][]string),
		lastOf:    make(map[string]string),
	}
}

func lastOfKey(serviceID, eventType string) string {
	return serviceID + "\x00" + eventType
}

// Put appends id to service_id's insertion-ordered list and updates the
// last_of(service_id, event_type) pointer.
func (idx *ServiceIndex) Put(serviceID, eventType, id string) {
	idx.byService[serviceID] = append(idx.byService[serviceID], id)
	idx.lastOf[lastOfKey(serviceID, eventType)] = id
}

// LastOf returns the most recently ingested event id for (service_id,
// event_type), or "" if none.
func (idx *ServiceIndex) LastOf(serviceID, eventType string) (string, bool) {
	id, ok := idx.lastOf[lastOfKey(serviceID, eventType)]
	return id, ok
}

// ByService returns the insertion-ordered event ids for a service.
func (idx *ServiceIndex) ByService(serviceID string) []string {
	return idx.byService[serviceID]
}

// Remove deletes id from service_id's list. If id was the cached last_of
// pointer for (service_id, event_type), the pointer is cleared, so LastOf
// reports nothing for that pair until its next Put.
func (idx *ServiceIndex) Remove(serviceID, eventType, id string) {
	ids := idx.byService[serviceID]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	idx.byService[serviceID] = ids

	// Clear the cached pointer if it named this id; it is rebuilt by the
	// next ingest of this (service, event_type), and eviction runs far
	// enough behind live traffic that a transient miss is harmless.
	key := lastOfKey(serviceID, eventType)
	if idx.lastOf[key] == id {
		delete(idx.lastOf, key)
	}
}
